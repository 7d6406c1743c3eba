// Package shell is the interactive front end: play positions by hand,
// ask the engine for analysis, and kick off self-play batches.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/cdunn/twenty48/ai/player"
	"github.com/cdunn/twenty48/automatic"
	"github.com/cdunn/twenty48/board"
	"github.com/cdunn/twenty48/config"
	"github.com/cdunn/twenty48/expectimax"
	"github.com/cdunn/twenty48/game"
	"github.com/cdunn/twenty48/move"
)

var errQuit = errors.New("quitting")

// ShellController owns the readline loop and the current game.
type ShellController struct {
	l   *readline.Instance
	cfg *config.Config

	game  *game.Game
	agent *player.ExpectimaxPlayer
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController builds the controller and starts a fresh game.
func NewShellController(cfg *config.Config) (*ShellController, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mtwenty48>\033[0m ",
		HistoryFile:     "/tmp/twenty48_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	agent, err := player.NewExpectimaxPlayer(cfg)
	if err != nil {
		return nil, err
	}
	return &ShellController{
		l:     l,
		cfg:   cfg,
		game:  game.NewGame(),
		agent: agent,
	}, nil
}

func (sc *ShellController) showGame() {
	showMessage(sc.game.ToDisplayText(), sc.l.Stderr())
}

// splitCommand separates a line into the command word and its
// arguments, honoring shell-style quoting for board strings.
func splitCommand(line string) (string, []string, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, nil
	}
	return fields[0], fields[1:], nil
}

func (sc *ShellController) handle(line string) error {
	cmd, args, err := splitCommand(line)
	if err != nil {
		return err
	}
	if cmd == "" {
		return nil
	}

	switch cmd {
	case "new":
		sc.game = game.NewGame()
		sc.showGame()
	case "show":
		sc.showGame()
	case "load":
		if len(args) != 1 {
			return errors.New("usage: load \"<16 cells, row-major, . for empty>\"")
		}
		b, err := board.Parse(args[0])
		if err != nil {
			return err
		}
		sc.game = game.NewGameFromBoard(b)
		sc.showGame()
	case "move", "m":
		if len(args) != 1 {
			return errors.New("usage: move <up|down|left|right>")
		}
		m, err := move.Parse(args[0])
		if err != nil {
			return err
		}
		if err := sc.game.PlayMove(m); err != nil {
			return err
		}
		sc.showGame()
	case "best":
		budget := sc.cfg.GetDuration(config.KeyMoveTime)
		if len(args) == 1 {
			budget, err = time.ParseDuration(args[0])
			if err != nil {
				return err
			}
		}
		m, value, err := sc.agent.Solver().BestMove(context.Background(),
			sc.game.Board(), time.Now().Add(budget))
		if errors.Is(err, expectimax.ErrNoLegalMove) {
			showMessage("no legal moves; game over", sc.l.Stderr())
			return nil
		}
		if err != nil {
			return err
		}
		showMessage(fmt.Sprintf("best move: %s (value %.1f, depth %d, %d nodes)",
			m, value, sc.agent.Solver().LastDepth(), sc.agent.Solver().Nodes()),
			sc.l.Stderr())
	case "play":
		// Engine plays one move on the live game.
		m, err := sc.agent.SelectMove(context.Background(), sc.game.Board(), time.Time{})
		if errors.Is(err, expectimax.ErrNoLegalMove) {
			showMessage("no legal moves; game over", sc.l.Stderr())
			return nil
		}
		if err != nil {
			return err
		}
		if err := sc.game.PlayMove(m); err != nil {
			return err
		}
		showMessage("played "+m.String(), sc.l.Stderr())
		sc.showGame()
	case "auto":
		games := sc.cfg.GetInt(config.KeyAutoplayGames)
		threads := sc.cfg.GetInt(config.KeyAutoplayThreads)
		if len(args) >= 1 {
			if games, err = strconv.Atoi(args[0]); err != nil {
				return err
			}
		}
		if len(args) >= 2 {
			if threads, err = strconv.Atoi(args[1]); err != nil {
				return err
			}
		}
		summary, err := automatic.StartCompVCompGames(context.Background(), sc.cfg,
			games, threads, sc.cfg.GetString(config.KeyAutoplayLogfile))
		if err != nil {
			return err
		}
		showMessage(summary.String(), sc.l.Stderr())
	case "set":
		if len(args) != 2 {
			return errors.New("usage: set <option> <value>")
		}
		sc.cfg.Set(args[0], args[1])
		// The agent bakes weights and budget in at construction.
		if sc.agent, err = player.NewExpectimaxPlayer(sc.cfg); err != nil {
			return err
		}
		showMessage(fmt.Sprintf("%s = %s", args[0], args[1]), sc.l.Stderr())
	case "options":
		for k, v := range sc.cfg.SanitizedSettings() {
			showMessage(fmt.Sprintf("%s: %v", k, v), sc.l.Stderr())
		}
	case "export":
		if len(args) != 1 {
			return errors.New("usage: export <file>")
		}
		out, err := yaml.Marshal(sc.cfg.Weights())
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], out, 0644); err != nil {
			return err
		}
		showMessage("wrote weights to "+args[0], sc.l.Stderr())
	case "help":
		usage(sc.l.Stderr())
	case "exit", "quit", "bye":
		return errQuit
	default:
		return fmt.Errorf("unrecognized command %q; try help", cmd)
	}
	return nil
}

// Loop reads and executes commands until exit or EOF.
func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sc.handle(line); err != nil {
			if errors.Is(err, errQuit) {
				sig <- syscall.SIGINT
				break
			}
			log.Error().Err(err).Msg("")
		}
	}
	log.Debug().Msg("exiting readline loop")
}

func usage(w io.Writer) {
	showMessage(`Commands:
  new                      start a fresh game
  show                     display the current position
  load "<cells>"           load a position (16 row-major values, . = empty)
  move <dir>               play up/down/left/right by hand
  best [budget]            ask the engine for the best move (e.g. best 500ms)
  play                     let the engine play one move
  auto [n] [threads]       self-play n games and print a summary
  set <option> <value>     change an option (see options)
  options                  list current options
  export <file>            write the active weights as YAML
  exit                     leave the shell`, w)
}
