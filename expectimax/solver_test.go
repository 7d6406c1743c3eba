package expectimax

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/config"
	"github.com/cdunn/twenty48/equity"
	"github.com/cdunn/twenty48/move"
)

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.Parse(s)
	require.NoError(t, err)
	return b
}

// funcEvaluator lets a test inject an arbitrary scoring function.
type funcEvaluator func(board.Board) float64

func (f funcEvaluator) Evaluate(b board.Board) float64 { return f(b) }

func newSolver(t *testing.T, ev equity.Evaluator) *Solver {
	t.Helper()
	s := &Solver{}
	require.NoError(t, s.Init(ev, nil))
	return s
}

func defaultSolver(t *testing.T) *Solver {
	return newSolver(t, equity.NewWeightedEvaluator(equity.DefaultWeights()))
}

var deadBoard = `
	2 4 2 4
	4 2 4 2
	2 4 2 4
	4 2 4 2`

func TestChanceWeightsSumToOne(t *testing.T) {
	// With a constant evaluator, any expectation over children whose
	// weights sum to one must equal that constant.
	s := newSolver(t, funcEvaluator(func(board.Board) float64 { return 1.0 }))
	s.SetMaxChanceCells(0) // expand every empty cell

	for _, fixture := range []string{
		`2 4 2 .
		 . . . .
		 . . . .
		 . . . 2`, // 12 empty cells
		`2 4 2 4
		 4 2 4 2
		 2 4 2 4
		 4 2 4 .`, // exactly one empty cell
	} {
		b := mustParse(t, fixture)
		got := s.expect(b, 1, -Infinity, Infinity)
		assert.InDelta(t, 1.0, got, 1e-12)
	}
}

func TestChanceSpawnWeighting(t *testing.T) {
	// One empty cell: the expectation must be 0.9 x value(spawn 2) plus
	// 0.1 x value(spawn 4). Score boards by the value of the spawned
	// cell to tell the two children apart.
	b := mustParse(t, `
		2 4 2 4
		4 2 4 2
		2 4 2 4
		4 2 4 .`)
	s := newSolver(t, funcEvaluator(func(b board.Board) float64 {
		return float64(b.Get(3, 3))
	}))
	got := s.expect(b, 1, -Infinity, Infinity)
	assert.InDelta(t, 0.9*2+0.1*4, got, 1e-12)
}

func TestChanceCellCapRanksBySnakeImportance(t *testing.T) {
	s := defaultSolver(t)
	s.SetMaxChanceCells(2)
	cells := []board.Position{
		{Row: 3, Col: 0}, // snake weight 1, tail of the path
		{Row: 0, Col: 0}, // head of the path
		{Row: 2, Col: 2},
		{Row: 0, Col: 1},
	}
	capped := s.chanceCells(cells)
	require.Len(t, capped, 2)
	assert.Equal(t, board.Position{Row: 0, Col: 0}, capped[0])
	assert.Equal(t, board.Position{Row: 0, Col: 1}, capped[1])
}

func TestAlphaBetaEquivalence(t *testing.T) {
	// Pruning is an optimization, not a behavior change: move and score
	// must match a full enumeration on fixed boards at fixed depth.
	fixtures := []string{
		`2 . . .
		 . . . .
		 . . . .
		 . . . 2`,
		`2 4 8 16
		 . . . .
		 . 2 . .
		 . . . 4`,
		`16 8 4 2
		 2 4 8 16
		 16 8 . .
		 . . . .`,
	}
	for _, fixture := range fixtures {
		b := mustParse(t, fixture)

		pruned := defaultSolver(t)
		full := defaultSolver(t)
		full.SetPruningDisabled(true)

		for depth := 1; depth <= 3; depth++ {
			prunedVal, prunedMove, err := pruned.Solve(context.Background(), b, depth)
			require.NoError(t, err)
			fullVal, fullMove, err := full.Solve(context.Background(), b, depth)
			require.NoError(t, err)
			assert.Equal(t, fullMove, prunedMove, "depth %d, board %s", depth, b)
			assert.InDelta(t, fullVal, prunedVal, 1e-9, "depth %d, board %s", depth, b)
		}
	}
}

func TestTranspositionTableValueNeutral(t *testing.T) {
	// Caching must not change the result: with the table on (the default
	// configuration) every fixed-depth move and value must match the
	// table-free search.
	fixtures := []string{
		`64 .  .  .
		 2  8  .  .
		 .  .  32 2
		 .  .  4  16`,
		`2 . . .
		 . . . .
		 . . . .
		 . . . 2`,
		`16 8 4 2
		 2 4 8 16
		 16 8 . .
		 . . . .`,
	}
	cfg := config.DefaultConfig()
	cfg.Set(config.KeyTTableFraction, 0.001)
	for _, fixture := range fixtures {
		b := mustParse(t, fixture)

		cached := &Solver{}
		require.NoError(t, cached.Init(equity.NewWeightedEvaluator(equity.DefaultWeights()), cfg))
		require.NotNil(t, cached.ttable)
		plain := defaultSolver(t)

		for depth := 1; depth <= 6; depth++ {
			cachedVal, cachedMove, err := cached.Solve(context.Background(), b, depth)
			require.NoError(t, err)
			plainVal, plainMove, err := plain.Solve(context.Background(), b, depth)
			require.NoError(t, err)
			assert.Equal(t, plainMove, cachedMove, "depth %d, board %s", depth, b)
			assert.InDelta(t, plainVal, cachedVal, 1e-9, "depth %d, board %s", depth, b)
		}
	}
}

func TestBestMoveDepthGrowsWithCap(t *testing.T) {
	// With a generous deadline the deepening loop completes exactly the
	// configured number of iterations, so a larger depth cap never
	// yields a shallower search.
	b := mustParse(t, `
		2 4 8 16
		. . . .
		. 2 . .
		. . . 4`)
	prev := 0
	for _, limit := range []int{1, 2, 3} {
		s := defaultSolver(t)
		s.maxDepth = limit
		m, _, err := s.BestMove(context.Background(), b, time.Now().Add(time.Hour))
		require.NoError(t, err)
		_, changed := b.ApplyMove(m)
		assert.True(t, changed)
		assert.Equal(t, limit, s.LastDepth())
		assert.GreaterOrEqual(t, s.LastDepth(), prev)
		prev = s.LastDepth()
	}
}

func TestSolveBestMoveDominates(t *testing.T) {
	// The chosen move's value must be at least the value of every other
	// legal move at the same depth.
	b := mustParse(t, `
		. . . .
		. . . .
		. . . .
		. . . 2`)
	const depth = 3

	s := defaultSolver(t)
	s.SetPruningDisabled(true)
	bestVal, bestMove, err := s.Solve(context.Background(), b, depth)
	require.NoError(t, err)

	legal := 0
	for _, m := range move.AllMoves {
		nb, changed := b.ApplyMove(m)
		if !changed {
			continue
		}
		legal++
		val := s.expect(nb, depth-1, -Infinity, Infinity)
		assert.GreaterOrEqual(t, bestVal+1e-9, val, "move %s", m)
		if m == bestMove {
			assert.InDelta(t, bestVal, val, 1e-9)
		}
	}
	require.NotZero(t, legal)
}

func TestSolveNoLegalMove(t *testing.T) {
	s := defaultSolver(t)
	_, _, err := s.Solve(context.Background(), mustParse(t, deadBoard), 3)
	assert.ErrorIs(t, err, ErrNoLegalMove)
}

func TestBestMoveNoLegalMove(t *testing.T) {
	s := defaultSolver(t)
	_, _, err := s.BestMove(context.Background(), mustParse(t, deadBoard), time.Now().Add(time.Second))
	assert.ErrorIs(t, err, ErrNoLegalMove)
}

func TestBestMoveReturnsLegalMove(t *testing.T) {
	b := mustParse(t, `
		. . . .
		. . . .
		. . . .
		. . . 2`)
	s := defaultSolver(t)
	m, _, err := s.BestMove(context.Background(), b, time.Now().Add(100*time.Millisecond))
	require.NoError(t, err)
	_, changed := b.ApplyMove(m)
	assert.True(t, changed)
	assert.GreaterOrEqual(t, s.LastDepth(), 1)
}

func TestBestMoveExpiredDeadline(t *testing.T) {
	// A deadline in the past must still produce a legal move, not block
	// or fail.
	b := mustParse(t, `
		2 4 2 4
		4 2 4 2
		2 4 2 4
		4 2 4 .`)
	s := defaultSolver(t)
	m, _, err := s.BestMove(context.Background(), b, time.Now().Add(-time.Second))
	require.NoError(t, err)
	_, changed := b.ApplyMove(m)
	assert.True(t, changed)
	assert.Equal(t, 0, s.LastDepth())
}

func TestBestMoveCanceledContext(t *testing.T) {
	b := mustParse(t, `
		. . . .
		. . . .
		. . . .
		. . . 2`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := defaultSolver(t)
	m, _, err := s.BestMove(ctx, b, time.Now().Add(time.Second))
	require.NoError(t, err)
	_, changed := b.ApplyMove(m)
	assert.True(t, changed)
}

func TestAgentDeadEndEvaluatesBoard(t *testing.T) {
	// A completely empty board has no legal move but is not terminal;
	// the agent node must fall back to evaluating it as-is.
	s := newSolver(t, funcEvaluator(func(b board.Board) float64 {
		return 42 + float64(b.MaxTile())
	}))
	got := s.maximize(board.Board(0), 3, -Infinity, Infinity)
	assert.InDelta(t, 42.0, got, 1e-12)
}

func TestTerminalNodeEvaluatesDirectly(t *testing.T) {
	s := newSolver(t, funcEvaluator(func(board.Board) float64 { return -7 }))
	got := s.maximize(mustParse(t, deadBoard), 5, -Infinity, Infinity)
	assert.InDelta(t, -7.0, got, 1e-12)
}

func TestDepthZeroEvaluatesDirectly(t *testing.T) {
	s := newSolver(t, funcEvaluator(func(board.Board) float64 { return 13 }))
	b := mustParse(t, `
		2 . . .
		. . . .
		. . . .
		. . . .`)
	assert.InDelta(t, 13.0, s.maximize(b, 0, -Infinity, Infinity), 1e-12)
	assert.InDelta(t, 13.0, s.expect(b, 0, -Infinity, Infinity), 1e-12)
}
