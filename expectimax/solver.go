// Package expectimax implements the decision engine: a depth-limited
// expectiminimax search over board states with alpha-beta style bounds
// on the agent layers, driven to successively greater depths until a
// wall-clock deadline.
//
// The tree strictly alternates two node kinds. Agent nodes maximize
// over the legal directions. Environment nodes take the expectation
// over tile spawns: every considered empty cell contributes a 2 with
// probability 0.9 and a 4 with probability 0.1, and cells are weighted
// uniformly. Because no adversarial minimizer exists, an inherited beta
// bound never becomes finite; the alpha-beta window is threaded through
// faithfully but the engine's practical speed comes from capping the
// number of empty cells expanded per environment node (ranked by
// positional importance) and from the transposition table, not from
// deep cutoffs. The table caches only exact values and serves them only
// at the probed depth, because every cached agent value feeds a
// probability-weighted average above it. Chance-node expectation
// bounding is deliberately not implemented; full enumeration under the
// cell cap keeps the search exact for the cells it does expand.
package expectimax

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/config"
	"github.com/cdunn/twenty48/equity"
	"github.com/cdunn/twenty48/move"
)

// Infinity exceeds any reachable heuristic magnitude (those top out
// around 1e13 with the default snake matrix).
const Infinity = 1e18

// Spawn probabilities of the environment.
const (
	ProbTwo  = 0.9
	ProbFour = 0.1
)

// ErrNoLegalMove is returned when no direction changes the board. It is
// the game-over signal, not a fault; callers must not retry.
var ErrNoLegalMove = errors.New("no legal move from this position")

// errDeadline is internal: the iterative deepening loop translates it
// into "use the last completed depth".
var errDeadline = errors.New("deadline exceeded")

// Solver walks the expectiminimax tree. Not safe for concurrent use;
// each call to Solve or BestMove is otherwise independent.
type Solver struct {
	evaluator equity.Evaluator
	ranker    equity.CellRanker

	maxChanceCells int
	maxDepth       int
	disablePruning bool
	ttable         *TranspositionTable

	nodes     int
	lastDepth int
}

type rootMove struct {
	m     move.Move
	b     board.Board
	value float64
}

type defaultRanker [board.Dim][board.Dim]float64

func (d defaultRanker) CellImportance(p board.Position) float64 {
	return d[p.Row][p.Col]
}

// Init configures the solver. A nil cfg selects defaults with the
// transposition table off, which is what the tests want.
func (s *Solver) Init(ev equity.Evaluator, cfg *config.Config) error {
	if ev == nil {
		return errors.New("an evaluator is required")
	}
	s.evaluator = ev
	if r, ok := ev.(equity.CellRanker); ok {
		s.ranker = r
	} else {
		s.ranker = defaultRanker(equity.DefaultSnakeMatrix())
	}
	s.maxChanceCells = 4
	s.maxDepth = 50
	if cfg != nil {
		s.maxChanceCells = cfg.GetInt(config.KeyMaxChanceCells)
		s.maxDepth = cfg.GetInt(config.KeyMaxDepth)
		if cfg.GetBool(config.KeyTTable) {
			s.ttable = NewTranspositionTable(cfg.GetFloat64(config.KeyTTableFraction))
		}
	}
	return nil
}

// SetPruningDisabled turns off alpha-beta bookkeeping entirely; used to
// verify that pruning is an optimization, not a behavior change.
func (s *Solver) SetPruningDisabled(disable bool) {
	s.disablePruning = disable
}

// SetMaxChanceCells overrides the environment-node branching cap.
// 0 means expand every empty cell.
func (s *Solver) SetMaxChanceCells(n int) {
	s.maxChanceCells = n
}

// Nodes returns the number of nodes expanded by the last search call.
func (s *Solver) Nodes() int {
	return s.nodes
}

// LastDepth returns the deepest fully completed iteration of the last
// BestMove call.
func (s *Solver) LastDepth() int {
	return s.lastDepth
}

// Solve searches the position to a fixed depth and returns the best
// move and its value. No deadline applies.
func (s *Solver) Solve(ctx context.Context, b board.Board, plies int) (float64, move.Move, error) {
	s.nodes = 0
	moves := s.legalRootMoves(b)
	if len(moves) == 0 {
		return 0, 0, ErrNoLegalMove
	}
	if _, err := s.searchRoot(ctx, moves, plies, time.Time{}); err != nil {
		return 0, 0, err
	}
	best := moves[0]
	for _, rm := range moves[1:] {
		if rm.value > best.value {
			best = rm
		}
	}
	return best.value, best.m, nil
}

// BestMove runs iterative deepening until the deadline and returns the
// best move of the deepest fully completed depth. When even depth 1
// cannot finish, the best of the branches scored so far is returned,
// falling back to the first legal move; the call never blocks past the
// current top-level branch and never fails on a short deadline.
func (s *Solver) BestMove(ctx context.Context, b board.Board, deadline time.Time) (move.Move, float64, error) {
	s.nodes = 0
	s.lastDepth = 0
	if s.ttable != nil {
		s.ttable.Reset()
	}
	moves := s.legalRootMoves(b)
	if len(moves) == 0 {
		return 0, 0, ErrNoLegalMove
	}

	bestMove := moves[0].m
	bestValue := -Infinity
	haveCompleted := false
	tstart := time.Now()

	for depth := 1; depth <= s.maxDepth; depth++ {
		scored, err := s.searchRoot(ctx, moves, depth, deadline)
		if err != nil {
			// Abandon the in-progress depth. Partial results only count
			// when no depth ever completed.
			if !haveCompleted {
				for _, rm := range moves[:scored] {
					if rm.value > bestValue {
						bestValue = rm.value
						bestMove = rm.m
					}
				}
			}
			break
		}
		// Sort for the next iteration so promising branches raise alpha
		// early.
		sort.SliceStable(moves, func(i, j int) bool {
			return moves[i].value > moves[j].value
		})
		bestMove = moves[0].m
		bestValue = moves[0].value
		haveCompleted = true
		s.lastDepth = depth
		log.Debug().
			Int("depth", depth).
			Stringer("move", bestMove).
			Float64("value", bestValue).
			Int("nodes", s.nodes).
			Msg("depth-completed")
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
	}
	log.Debug().
		Int("last-depth", s.lastDepth).
		Int("nodes", s.nodes).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("best-move")
	return bestMove, bestValue, nil
}

func (s *Solver) legalRootMoves(b board.Board) []*rootMove {
	moves := make([]*rootMove, 0, len(move.AllMoves))
	for _, m := range move.AllMoves {
		if nb, changed := b.ApplyMove(m); changed {
			moves = append(moves, &rootMove{m: m, b: nb})
		}
	}
	return moves
}

// searchRoot scores every root move at the given depth. The deadline is
// polled once per top-level branch, which bounds overshoot to a single
// branch; no cancellation reaches deeper into the recursion. Returns
// how many branches were scored before any interruption.
func (s *Solver) searchRoot(ctx context.Context, moves []*rootMove, depth int, deadline time.Time) (int, error) {
	alpha, beta := -Infinity, Infinity
	for i, rm := range moves {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return i, errDeadline
		}
		rm.value = s.expect(rm.b, depth-1, alpha, beta)
		if !s.disablePruning && rm.value > alpha {
			alpha = rm.value
		}
	}
	return len(moves), nil
}

// maximize is the agent node: the maximum over legal directions of the
// expectation after the move. A dead end (no legal move) evaluates the
// board as-is.
func (s *Solver) maximize(b board.Board, depth int, alpha, beta float64) float64 {
	s.nodes++
	if depth == 0 || b.IsTerminal() {
		return s.evaluator.Evaluate(b)
	}

	key := b.Packed()
	if s.ttable != nil {
		if score, ok := s.ttable.lookup(key, depth); ok {
			return score
		}
	}

	best := -Infinity
	moved := false
	for _, m := range move.AllMoves {
		nb, changed := b.ApplyMove(m)
		if !changed {
			continue
		}
		moved = true
		value := s.expect(nb, depth-1, alpha, beta)
		if value > best {
			best = value
		}
		if !s.disablePruning {
			if best >= beta {
				break // beta cut-off
			}
			if best > alpha {
				alpha = best
			}
		}
	}
	if !moved {
		return s.evaluator.Evaluate(b)
	}

	// With no minimizer above, beta stays infinite and the loop never
	// cuts, so best is the exact value of this node at this depth.
	if s.ttable != nil {
		s.ttable.store(key, best, depth)
	}
	return best
}

// expect is the environment node: the probability-weighted average over
// spawn placements. Each expanded cell contributes its 2-spawn child at
// weight 0.9 and its 4-spawn child at weight 0.1; cells are weighted
// uniformly, so the child weights sum to one. No cutoff happens here: a
// single child's value never bounds the average, so the window is
// passed through untouched for the agent layers below.
func (s *Solver) expect(b board.Board, depth int, alpha, beta float64) float64 {
	s.nodes++
	if depth == 0 {
		return s.evaluator.Evaluate(b)
	}
	cells := b.EmptyCells()
	if len(cells) == 0 {
		return s.evaluator.Evaluate(b)
	}
	cells = s.chanceCells(cells)

	var sum float64
	for _, p := range cells {
		sum += ProbTwo * s.maximize(b.WithTile(p.Row, p.Col, 2), depth-1, alpha, beta)
		sum += ProbFour * s.maximize(b.WithTile(p.Row, p.Col, 4), depth-1, alpha, beta)
	}
	return sum / float64(len(cells))
}

// chanceCells ranks the empty cells by positional importance and keeps
// the top maxChanceCells. Capping trades exactness of the expectation
// against search depth; spawns near the head of the snake path disturb
// the position most, so those are the ones worth modeling.
func (s *Solver) chanceCells(cells []board.Position) []board.Position {
	if s.maxChanceCells <= 0 || len(cells) <= s.maxChanceCells {
		return cells
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return s.ranker.CellImportance(cells[i]) > s.ranker.CellImportance(cells[j])
	})
	return cells[:s.maxChanceCells]
}
