// autoplay plays a batch of unattended games and prints the summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cdunn/twenty48/automatic"
	"github.com/cdunn/twenty48/config"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if cfg.GetBool(config.KeyDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("got stop signal, finishing current games")
		cancel()
	}()

	summary, err := automatic.StartCompVCompGames(ctx, cfg,
		cfg.GetInt(config.KeyAutoplayGames),
		cfg.GetInt(config.KeyAutoplayThreads),
		cfg.GetString(config.KeyAutoplayLogfile))
	if err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
	fmt.Print(summary.String())
}
