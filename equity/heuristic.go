// Package equity computes position scores for the search. The sole
// production evaluator is a weighted sum of four handcrafted features:
// adherence to a snake-shaped positional pattern, smoothness of
// adjacent tiles, the number of empty cells, and a bonus for keeping
// the maximum tile on the pattern's anchor corner. The feature weights
// were tuned offline with Bayesian optimization and are consumed here
// as plain constants.
package equity

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/cdunn/twenty48/board"
)

// Weights holds the coefficients of the four features. Relative scale
// across features is baked into the tuned values; no normalization
// happens at evaluation time.
type Weights struct {
	Snake      float64 `yaml:"snake"`
	Smoothness float64 `yaml:"smoothness"`
	Empty      float64 `yaml:"empty"`
	Corner     float64 `yaml:"corner"`
}

// DefaultWeights returns the offline-tuned coefficients.
func DefaultWeights() Weights {
	return Weights{
		Snake:      0.15966252220214197,
		Smoothness: 2.3089382562214906,
		Empty:      2.410254660260118,
		Corner:     6.832635188254583,
	}
}

// DefaultSnakeMatrix returns the positional weight matrix: powers of 4
// decreasing along a boustrophedon path anchored at the top-left
// corner. Large tiles parked at the head of the path dominate the
// adherence score, which in practice keeps them clustered and ordered.
func DefaultSnakeMatrix() [board.Dim][board.Dim]float64 {
	// Path order by exponent of 4:
	//   15 14 13 12
	//    8  9 10 11
	//    7  6  5  4
	//    0  1  2  3
	exps := [board.Dim][board.Dim]int{
		{15, 14, 13, 12},
		{8, 9, 10, 11},
		{7, 6, 5, 4},
		{0, 1, 2, 3},
	}
	var m [board.Dim][board.Dim]float64
	for r := 0; r < board.Dim; r++ {
		for c := 0; c < board.Dim; c++ {
			m[r][c] = float64(uint64(1) << uint(2*exps[r][c]))
		}
	}
	return m
}

// WeightedEvaluator is the production evaluator.
type WeightedEvaluator struct {
	weights Weights
	snake   [board.Dim][board.Dim]float64
	anchor  board.Position
}

// NewWeightedEvaluator builds an evaluator with the given weights and
// the default snake matrix.
func NewWeightedEvaluator(w Weights) *WeightedEvaluator {
	return NewWeightedEvaluatorMatrix(w, DefaultSnakeMatrix())
}

// NewWeightedEvaluatorMatrix builds an evaluator with a custom
// positional matrix. The corner-control anchor is the head of the
// matrix, its highest-weighted cell, so the two features always agree
// on where the maximum tile belongs.
func NewWeightedEvaluatorMatrix(w Weights, snake [board.Dim][board.Dim]float64) *WeightedEvaluator {
	anchor := board.Position{}
	for r := 0; r < board.Dim; r++ {
		for c := 0; c < board.Dim; c++ {
			if snake[r][c] > snake[anchor.Row][anchor.Col] {
				anchor = board.Position{Row: r, Col: c}
			}
		}
	}
	log.Debug().
		Float64("snake", w.Snake).
		Float64("smoothness", w.Smoothness).
		Float64("empty", w.Empty).
		Float64("corner", w.Corner).
		Int("anchor-row", anchor.Row).
		Int("anchor-col", anchor.Col).
		Msg("new-weighted-evaluator")
	return &WeightedEvaluator{weights: w, snake: snake, anchor: anchor}
}

// Anchor returns the corner the positional path starts from; the
// corner-control feature rewards holding the maximum tile there.
func (e *WeightedEvaluator) Anchor() board.Position {
	return e.anchor
}

// Evaluate scores a board. It is total: a lost position gets whatever
// its features compute. There is no separate loss penalty; a dead board
// already scores badly through the empty-cell and smoothness terms.
func (e *WeightedEvaluator) Evaluate(b board.Board) float64 {
	return e.weights.Snake*e.snakeAdherence(b) +
		e.weights.Smoothness*smoothness(b) +
		e.weights.Empty*float64(b.CountEmpty()) +
		e.weights.Corner*e.cornerControl(b)
}

// CellImportance implements CellRanker with the snake matrix weight of
// the cell.
func (e *WeightedEvaluator) CellImportance(p board.Position) float64 {
	return e.snake[p.Row][p.Col]
}

// snakeAdherence is the sum of tile value times positional weight.
func (e *WeightedEvaluator) snakeAdherence(b board.Board) float64 {
	var sum float64
	for r := 0; r < board.Dim; r++ {
		for c := 0; c < board.Dim; c++ {
			if v := b.Get(r, c); v != 0 {
				sum += float64(v) * e.snake[r][c]
			}
		}
	}
	return sum
}

// smoothness penalizes each horizontally or vertically adjacent pair of
// occupied cells by the absolute difference of their log2 magnitudes.
// Pairs involving an empty cell, and equal neighbors, contribute
// nothing.
func smoothness(b board.Board) float64 {
	var score float64
	for r := 0; r < board.Dim; r++ {
		for c := 0; c < board.Dim; c++ {
			cur := b.Exponent(r, c)
			if cur == 0 {
				continue
			}
			if c+1 < board.Dim {
				if right := b.Exponent(r, c+1); right != 0 {
					score -= math.Abs(float64(cur - right))
				}
			}
			if r+1 < board.Dim {
				if down := b.Exponent(r+1, c); down != 0 {
					score -= math.Abs(float64(cur - down))
				}
			}
		}
	}
	return score
}

// cornerControl returns the max tile value if it sits on the anchor
// corner, else zero.
func (e *WeightedEvaluator) cornerControl(b board.Board) float64 {
	max := b.MaxTile()
	if max == 0 {
		return 0
	}
	if b.Get(e.anchor.Row, e.anchor.Col) == max {
		return float64(max)
	}
	return 0
}
