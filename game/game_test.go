package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/move"
)

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.Parse(s)
	require.NoError(t, err)
	return b
}

func TestNewGameSpawnsTwoTiles(t *testing.T) {
	g := NewGame()
	assert.True(t, g.Playing())
	assert.Equal(t, 14, g.Board().CountEmpty())
	assert.Equal(t, 0, g.Score())
	assert.Equal(t, 0, g.Turns())
}

func TestPlayMoveScoresAndSpawns(t *testing.T) {
	g := NewGameFromBoard(mustParse(t, `
		2 2 . .
		. . . .
		. . . .
		. . . .`))
	require.NoError(t, g.PlayMove(move.Left))
	assert.Equal(t, 4, g.Score())
	assert.Equal(t, 1, g.Turns())
	// The merge left 15 empties, then the environment spawned one tile.
	assert.Equal(t, 14, g.Board().CountEmpty())
	assert.Equal(t, 4, g.Board().Get(0, 0))
}

func TestPlayMoveIllegal(t *testing.T) {
	g := NewGameFromBoard(mustParse(t, `
		2 . . .
		. . . .
		. . . .
		. . . .`))
	err := g.PlayMove(move.Up)
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, 0, g.Turns())
}

func TestGameOver(t *testing.T) {
	dead := mustParse(t, `
		2 4 2 4
		4 2 4 2
		2 4 2 4
		4 2 4 2`)
	g := NewGameFromBoard(dead)
	assert.False(t, g.Playing())
	assert.ErrorIs(t, g.PlayMove(move.Left), ErrGameOver)
}

func TestSpawnRandomTile(t *testing.T) {
	g := NewGameFromBoard(mustParse(t, `
		2 4 2 4
		4 2 4 2
		2 4 2 4
		4 2 4 .`))
	p, v, ok := g.SpawnRandomTile()
	require.True(t, ok)
	assert.Equal(t, board.Position{Row: 3, Col: 3}, p)
	assert.Contains(t, []int{2, 4}, v)
	assert.Equal(t, v, g.Board().Get(3, 3))

	_, _, ok = g.SpawnRandomTile()
	assert.False(t, ok)
}

func TestSpawnDistribution(t *testing.T) {
	// Over many spawns, 4s should be rare and 2s common.
	twos, fours := 0, 0
	for i := 0; i < 2000; i++ {
		g := NewGameFromBoard(board.Board(0))
		_, v, ok := g.SpawnRandomTile()
		require.True(t, ok)
		if v == 2 {
			twos++
		} else {
			fours++
		}
	}
	assert.Greater(t, twos, fours)
	// Loose bounds: binomial(2000, 0.1) is far inside [50, 450].
	assert.Greater(t, fours, 50)
	assert.Less(t, fours, 450)
}
