// Package player defines the capability the game loop consumes — given
// a board and a deadline, produce a move — and the strategies
// implementing it.
package player

import (
	"context"
	"time"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/config"
	"github.com/cdunn/twenty48/equity"
	"github.com/cdunn/twenty48/expectimax"
	"github.com/cdunn/twenty48/move"
)

// Agent produces a move for a board within a time budget. The returned
// move is guaranteed to change the board; expectimax.ErrNoLegalMove
// signals game over and must be treated as terminal, not retried.
type Agent interface {
	SelectMove(ctx context.Context, b board.Board, deadline time.Time) (move.Move, error)
}

// ExpectimaxPlayer selects moves with the iteratively deepened
// expectiminimax solver.
type ExpectimaxPlayer struct {
	solver   *expectimax.Solver
	moveTime time.Duration
}

// NewExpectimaxPlayer builds the production player. A nil cfg selects
// the default weights and budget.
func NewExpectimaxPlayer(cfg *config.Config) (*ExpectimaxPlayer, error) {
	weights := equity.DefaultWeights()
	moveTime := 200 * time.Millisecond
	if cfg != nil {
		weights = cfg.Weights()
		moveTime = cfg.GetDuration(config.KeyMoveTime)
	}
	solver := &expectimax.Solver{}
	if err := solver.Init(equity.NewWeightedEvaluator(weights), cfg); err != nil {
		return nil, err
	}
	return &ExpectimaxPlayer{solver: solver, moveTime: moveTime}, nil
}

// Solver exposes the underlying solver for analysis commands.
func (p *ExpectimaxPlayer) Solver() *expectimax.Solver {
	return p.solver
}

// SelectMove searches until the deadline. A zero deadline means "use
// the nominal per-move budget from now".
func (p *ExpectimaxPlayer) SelectMove(ctx context.Context, b board.Board, deadline time.Time) (move.Move, error) {
	if deadline.IsZero() {
		deadline = time.Now().Add(p.moveTime)
	}
	m, _, err := p.solver.BestMove(ctx, b, deadline)
	return m, err
}
