package equity

import "github.com/cdunn/twenty48/board"

// Evaluator assigns a scalar desirability score to a board position.
// Implementations must be pure: same board, same score, no side
// effects.
type Evaluator interface {
	Evaluate(b board.Board) float64
}

// CellRanker is optionally implemented by evaluators that can order
// cells by positional importance. The search uses it to pick which
// spawn placements to expand at chance nodes.
type CellRanker interface {
	CellImportance(p board.Position) float64
}
