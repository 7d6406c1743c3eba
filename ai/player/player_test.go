package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/expectimax"
)

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.Parse(s)
	require.NoError(t, err)
	return b
}

var deadBoard = `
	2 4 2 4
	4 2 4 2
	2 4 2 4
	4 2 4 2`

func TestExpectimaxPlayerReturnsLegalMove(t *testing.T) {
	p, err := NewExpectimaxPlayer(nil)
	require.NoError(t, err)
	b := mustParse(t, `
		. . . .
		. . . .
		. 2 . .
		. . . 2`)
	m, err := p.SelectMove(context.Background(), b, time.Now().Add(50*time.Millisecond))
	require.NoError(t, err)
	_, changed := b.ApplyMove(m)
	assert.True(t, changed)
}

func TestExpectimaxPlayerGameOver(t *testing.T) {
	p, err := NewExpectimaxPlayer(nil)
	require.NoError(t, err)
	_, err = p.SelectMove(context.Background(), mustParse(t, deadBoard), time.Time{})
	assert.ErrorIs(t, err, expectimax.ErrNoLegalMove)
}

func TestRandomPlayerReturnsLegalMove(t *testing.T) {
	var p Agent = &RandomPlayer{}
	b := mustParse(t, `
		2 . . .
		. . . .
		. . . .
		. . . .`)
	for i := 0; i < 20; i++ {
		m, err := p.SelectMove(context.Background(), b, time.Time{})
		require.NoError(t, err)
		_, changed := b.ApplyMove(m)
		assert.True(t, changed)
	}
}

func TestRandomPlayerGameOver(t *testing.T) {
	var p Agent = &RandomPlayer{}
	_, err := p.SelectMove(context.Background(), mustParse(t, deadBoard), time.Time{})
	assert.ErrorIs(t, err, expectimax.ErrNoLegalMove)
}
