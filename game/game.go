// Package game holds the authoritative state of one real game: the
// live board, the cumulative score, and the spawn randomness that the
// environment applies between agent turns. The search never touches
// this package; it simulates spawns internally on board values.
package game

import (
	"errors"
	"fmt"

	"lukechampine.com/frand"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/move"
)

var (
	// ErrIllegalMove is returned when a move does not change the board.
	ErrIllegalMove = errors.New("move does not change the board")
	// ErrGameOver is returned when a move is played on a finished game.
	ErrGameOver = errors.New("game is over")
)

// FourProbability is the chance a spawned tile is a 4 instead of a 2.
const FourProbability = 0.1

// Game is one playthrough.
type Game struct {
	board   board.Board
	score   int
	turns   int
	playing bool
}

// NewGame starts a fresh game with two spawned tiles.
func NewGame() *Game {
	g := &Game{playing: true}
	g.SpawnRandomTile()
	g.SpawnRandomTile()
	return g
}

// NewGameFromBoard starts a game at an arbitrary position, scored from
// zero.
func NewGameFromBoard(b board.Board) *Game {
	return &Game{board: b, playing: !b.IsTerminal()}
}

func (g *Game) Board() board.Board { return g.board }
func (g *Game) Score() int         { return g.score }
func (g *Game) Turns() int         { return g.turns }

// Playing reports whether legal moves remain.
func (g *Game) Playing() bool { return g.playing }

// PlayMove applies the agent's move, credits merge points, spawns the
// environment's reply tile, and updates the play state.
func (g *Game) PlayMove(m move.Move) error {
	if !g.playing {
		return ErrGameOver
	}
	nb, points, changed := g.board.ApplyMoveScore(m)
	if !changed {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	g.board = nb
	g.score += points
	g.turns++
	g.SpawnRandomTile()
	if g.board.IsTerminal() {
		g.playing = false
	}
	return nil
}

// SpawnRandomTile places a 2 (90%) or 4 (10%) on a uniformly chosen
// empty cell. Reports false when the board is full.
func (g *Game) SpawnRandomTile() (board.Position, int, bool) {
	cells := g.board.EmptyCells()
	if len(cells) == 0 {
		return board.Position{}, 0, false
	}
	p := cells[frand.Intn(len(cells))]
	value := 2
	if frand.Float64() < FourProbability {
		value = 4
	}
	g.board = g.board.WithTile(p.Row, p.Col, value)
	return p, value, true
}

// ToDisplayText renders the position with a score line for the shell.
func (g *Game) ToDisplayText() string {
	status := "playing"
	if !g.playing {
		status = "game over"
	}
	return g.board.ToDisplayText() +
		fmt.Sprintf("Score: %d  Turn: %d  (%s)\n", g.score, g.turns, status)
}
