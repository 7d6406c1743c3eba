// Package board implements the 4x4 game board and its move operators.
//
// A Board packs the sixteen cells into a uint64, four bits per cell,
// each holding the log2 exponent of the tile (0 means empty, 1 means 2,
// and so on up to 15 for 32768). Cells are laid out row-major from the
// low bits, so row extraction and transposition are cheap shifts. The
// packed form doubles as a perfect hash key for the search's
// transposition table. Boards are values; every operator returns a new
// Board and never mutates the receiver.
package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/cdunn/twenty48/move"
)

// Dim is the board dimension. The engine supports exactly 4x4.
const Dim = 4

// MaxExponent is the largest representable tile exponent (32768). Two
// such tiles do not merge further.
const MaxExponent = 15

// ErrInvalidBoard is returned when a board is constructed from malformed
// input: wrong dimensions or a non-power-of-two tile value.
var ErrInvalidBoard = errors.New("invalid board")

// Board is the packed 4x4 grid.
type Board uint64

// Position is a cell coordinate, zero-indexed from the top-left.
type Position struct {
	Row, Col int
}

// FromCells builds a Board from a grid of tile values, validating each
// cell. Values must be 0 or a power of two between 2 and 32768.
func FromCells(cells [Dim][Dim]int) (Board, error) {
	var b Board
	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			v := cells[r][c]
			if v == 0 {
				continue
			}
			exp, err := exponentOf(v)
			if err != nil {
				return 0, fmt.Errorf("%w: cell (%d,%d) = %d", ErrInvalidBoard, r, c, v)
			}
			b = b.withExponent(r, c, exp)
		}
	}
	return b, nil
}

func exponentOf(v int) (int, error) {
	if v < 2 || v&(v-1) != 0 {
		return 0, errors.New("not a power of two")
	}
	exp := bits.TrailingZeros(uint(v))
	if exp > MaxExponent {
		return 0, errors.New("tile too large")
	}
	return exp, nil
}

// Exponent returns the log2 exponent at the given cell, 0 if empty.
func (b Board) Exponent(r, c int) int {
	return int((b >> uint((r*Dim+c)*4)) & 0xF)
}

// Get returns the tile value at the given cell, 0 if empty.
func (b Board) Get(r, c int) int {
	exp := b.Exponent(r, c)
	if exp == 0 {
		return 0
	}
	return 1 << uint(exp)
}

func (b Board) withExponent(r, c, exp int) Board {
	shift := uint((r*Dim + c) * 4)
	return (b &^ (0xF << shift)) | Board(exp)<<shift
}

// WithTile returns a copy of the board with value placed at (r, c).
// The cell's previous content is overwritten. value must be a power of
// two; the search only ever places 2s and 4s on empty cells.
func (b Board) WithTile(r, c, value int) Board {
	exp := bits.TrailingZeros(uint(value))
	return b.withExponent(r, c, exp)
}

// Cells unpacks the board into a grid of tile values.
func (b Board) Cells() [Dim][Dim]int {
	var cells [Dim][Dim]int
	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			cells[r][c] = b.Get(r, c)
		}
	}
	return cells
}

// ApplyMove slides the board in the given direction. The second return
// value is false iff the move is illegal, i.e. no cell shifted or
// merged.
func (b Board) ApplyMove(m move.Move) (Board, bool) {
	nb, _, changed := b.ApplyMoveScore(m)
	return nb, changed
}

// ApplyMoveScore is ApplyMove plus the points the move scores: the sum
// of the values of all tiles created by merges, per standard scoring.
func (b Board) ApplyMoveScore(m move.Move) (Board, int, bool) {
	var nb Board
	var score int
	switch m {
	case move.Left:
		nb, score = b.slideLeft()
	case move.Right:
		nb, score = b.slideRight()
	case move.Up:
		t, s := b.transpose().slideLeft()
		nb, score = t.transpose(), s
	case move.Down:
		t, s := b.transpose().slideRight()
		nb, score = t.transpose(), s
	}
	return nb, score, nb != b
}

func (b Board) slideLeft() (Board, int) {
	var out Board
	score := 0
	for r := 0; r < Dim; r++ {
		row, s := slideRow(b.row(r))
		out = out.withRow(r, row)
		score += s
	}
	return out, score
}

func (b Board) slideRight() (Board, int) {
	var out Board
	score := 0
	for r := 0; r < Dim; r++ {
		row, s := slideRow(reverseRow(b.row(r)))
		out = out.withRow(r, reverseRow(row))
		score += s
	}
	return out, score
}

func (b Board) row(r int) uint16 {
	return uint16(b >> uint(r*16))
}

func (b Board) withRow(r int, row uint16) Board {
	shift := uint(r * 16)
	return (b &^ (0xFFFF << shift)) | Board(row)<<shift
}

// slideRow compacts and merges one row toward the low nibble. Each pair
// of equal tiles merges at most once per pass; a freshly merged tile
// never re-merges within the same move.
func slideRow(row uint16) (uint16, int) {
	var out [Dim]int
	score := 0
	w := 0
	merged := false
	for i := 0; i < Dim; i++ {
		exp := int(row >> uint(i*4) & 0xF)
		if exp == 0 {
			continue
		}
		if w > 0 && !merged && out[w-1] == exp && exp < MaxExponent {
			out[w-1]++
			score += 1 << uint(out[w-1])
			merged = true
			continue
		}
		out[w] = exp
		w++
		merged = false
	}
	var packed uint16
	for i := 0; i < Dim; i++ {
		packed |= uint16(out[i]) << uint(i*4)
	}
	return packed, score
}

func reverseRow(row uint16) uint16 {
	return row<<12 | row>>12 | row<<4&0x0F00 | row>>4&0x00F0
}

func (b Board) transpose() Board {
	var out Board
	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			out = out.withExponent(c, r, b.Exponent(r, c))
		}
	}
	return out
}

// EmptyCells returns the positions of all empty cells in row-major
// order.
func (b Board) EmptyCells() []Position {
	cells := make([]Position, 0, Dim*Dim)
	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			if b.Exponent(r, c) == 0 {
				cells = append(cells, Position{r, c})
			}
		}
	}
	return cells
}

// CountEmpty returns the number of empty cells without allocating.
func (b Board) CountEmpty() int {
	n := 0
	for i := 0; i < Dim*Dim; i++ {
		if b>>uint(i*4)&0xF == 0 {
			n++
		}
	}
	return n
}

// IsTerminal reports whether the game is lost from this position: no
// empty cell remains and no direction changes the board. A full board
// with an adjacent equal pair is not terminal.
func (b Board) IsTerminal() bool {
	if b.CountEmpty() > 0 {
		return false
	}
	for _, m := range move.AllMoves {
		if _, changed := b.ApplyMove(m); changed {
			return false
		}
	}
	return true
}

// MaxTile returns the largest tile value on the board, 0 for an empty
// board.
func (b Board) MaxTile() int {
	max := 0
	for i := 0; i < Dim*Dim; i++ {
		if exp := int(b >> uint(i*4) & 0xF); exp > max {
			max = exp
		}
	}
	if max == 0 {
		return 0
	}
	return 1 << uint(max)
}

// Packed returns the raw 64-bit representation, used as a transposition
// table key.
func (b Board) Packed() uint64 {
	return uint64(b)
}

// Parse reads a board from whitespace-separated tile values, sixteen
// fields in row-major order. "." and "0" both denote an empty cell.
func Parse(s string) (Board, error) {
	fields := strings.Fields(s)
	if len(fields) != Dim*Dim {
		return 0, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidBoard,
			Dim*Dim, len(fields))
	}
	var cells [Dim][Dim]int
	for i, f := range fields {
		if f == "." {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return 0, fmt.Errorf("%w: bad cell %q", ErrInvalidBoard, f)
		}
		cells[i/Dim][i%Dim] = v
	}
	return FromCells(cells)
}

// ToDisplayText returns a bordered, human-readable rendering of the
// board for the shell.
func (b Board) ToDisplayText() string {
	var sb strings.Builder
	rule := "+-------+-------+-------+-------+\n"
	sb.WriteString(rule)
	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			if v := b.Get(r, c); v == 0 {
				sb.WriteString("|       ")
			} else {
				fmt.Fprintf(&sb, "|%6d ", v)
			}
		}
		sb.WriteString("|\n")
		sb.WriteString(rule)
	}
	return sb.String()
}

// String renders the board compactly on one line, parsable by Parse.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			if r+c > 0 {
				sb.WriteByte(' ')
			}
			if v := b.Get(r, c); v == 0 {
				sb.WriteByte('.')
			} else {
				sb.WriteString(strconv.Itoa(v))
			}
		}
	}
	return sb.String()
}
