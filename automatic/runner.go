// Package automatic plays unattended games for data collection:
// engine-vs-environment batches with a CSV turn log and a summary of
// final scores and max tiles.
package automatic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cdunn/twenty48/ai/player"
	"github.com/cdunn/twenty48/config"
	"github.com/cdunn/twenty48/expectimax"
	"github.com/cdunn/twenty48/game"
	"github.com/cdunn/twenty48/move"
)

// CSVHeader is the first line of the turn log.
const CSVHeader = "game,turn,move,points,score,maxtile\n"

// Result is the outcome of one finished game.
type Result struct {
	Score   int
	MaxTile int
	Turns   int
}

// GameRunner plays full games with a single agent. One runner per
// goroutine; the solver inside an agent is not concurrent-safe.
type GameRunner struct {
	agent   player.Agent
	logchan chan<- string
}

// NewGameRunner builds a runner around the production player.
func NewGameRunner(cfg *config.Config, logchan chan<- string) (*GameRunner, error) {
	agent, err := player.NewExpectimaxPlayer(cfg)
	if err != nil {
		return nil, err
	}
	return &GameRunner{agent: agent, logchan: logchan}, nil
}

// NewGameRunnerWithAgent builds a runner around any agent; used by
// tests with the random baseline.
func NewGameRunnerWithAgent(agent player.Agent, logchan chan<- string) *GameRunner {
	return &GameRunner{agent: agent, logchan: logchan}
}

// PlayGame plays one game to completion and returns its result.
func (r *GameRunner) PlayGame(ctx context.Context, gameID int) (Result, error) {
	g := game.NewGame()
	for g.Playing() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		m, err := r.agent.SelectMove(ctx, g.Board(), time.Time{})
		if errors.Is(err, expectimax.ErrNoLegalMove) {
			break
		}
		if err != nil {
			return Result{}, err
		}
		before := g.Score()
		if err := g.PlayMove(m); err != nil {
			return Result{}, fmt.Errorf("agent returned an illegal move: %w", err)
		}
		r.logTurn(gameID, g, m, g.Score()-before)
	}
	res := Result{Score: g.Score(), MaxTile: g.Board().MaxTile(), Turns: g.Turns()}
	log.Debug().
		Int("game", gameID).
		Int("score", res.Score).
		Int("maxtile", res.MaxTile).
		Int("turns", res.Turns).
		Msg("game-over")
	return res, nil
}

func (r *GameRunner) logTurn(gameID int, g *game.Game, m move.Move, points int) {
	if r.logchan == nil {
		return
	}
	r.logchan <- fmt.Sprintf("%d,%d,%s,%d,%d,%d\n",
		gameID, g.Turns(), m, points, g.Score(), g.Board().MaxTile())
}
