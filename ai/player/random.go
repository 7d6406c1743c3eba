package player

import (
	"context"
	"time"

	"lukechampine.com/frand"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/expectimax"
	"github.com/cdunn/twenty48/move"
)

// RandomPlayer picks a uniformly random legal move. It exists as a
// baseline and to exercise anything written against the Agent
// interface.
type RandomPlayer struct{}

func (p *RandomPlayer) SelectMove(ctx context.Context, b board.Board, deadline time.Time) (move.Move, error) {
	legal := make([]move.Move, 0, len(move.AllMoves))
	for _, m := range move.AllMoves {
		if _, changed := b.ApplyMove(m); changed {
			legal = append(legal, m)
		}
	}
	if len(legal) == 0 {
		return 0, expectimax.ErrNoLegalMove
	}
	return legal[frand.Intn(len(legal))], nil
}
