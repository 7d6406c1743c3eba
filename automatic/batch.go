package automatic

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/cdunn/twenty48/config"
	"github.com/cdunn/twenty48/stats"
)

// Summary aggregates a batch of finished games.
type Summary struct {
	Results   []Result
	scoreStat stats.Statistic
}

func newSummary(results []Result) *Summary {
	s := &Summary{Results: results}
	for _, r := range results {
		s.scoreStat.Push(float64(r.Score))
	}
	return s
}

// String renders the score statistics and a histogram of final max
// tiles.
func (s *Summary) String() string {
	if len(s.Results) == 0 {
		return "no games played\n"
	}
	maxTiles := lo.Map(s.Results, func(r Result, _ int) int { return r.MaxTile })
	reached2048 := lo.CountBy(maxTiles, func(t int) bool { return t >= 2048 })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Games: %d\n", len(s.Results))
	fmt.Fprintf(&sb, "Score: %.1f ± %.1f (95%% CI), stdev %.1f\n",
		s.scoreStat.Mean(), s.scoreStat.StandardError(95), s.scoreStat.Stdev())
	fmt.Fprintf(&sb, "Best tile: %d; reached 2048 in %d/%d games\n",
		lo.Max(maxTiles), reached2048, len(s.Results))
	sb.WriteString("Max tile distribution:\n")
	hist := histogram.Hist(10, lo.Map(maxTiles, func(t int, _ int) float64 {
		return float64(t)
	}))
	if err := histogram.Fprint(&sb, hist, histogram.Linear(40)); err != nil {
		log.Err(err).Msg("printing histogram")
	}
	return sb.String()
}

// StartCompVCompGames plays numGames full games across the given number
// of worker goroutines, streaming one CSV line per turn to
// outputFilename, and returns the batch summary. It blocks until every
// game finishes or ctx is canceled.
func StartCompVCompGames(ctx context.Context, cfg *config.Config,
	numGames, threads int, outputFilename string) (*Summary, error) {

	if threads < 1 {
		threads = 1
	}
	logfile, err := os.Create(outputFilename)
	if err != nil {
		return nil, err
	}
	log.Info().Int("games", numGames).Int("threads", threads).
		Str("logfile", outputFilename).Msg("starting-games")

	jobs := make(chan int, numGames)
	for i := 1; i <= numGames; i++ {
		jobs <- i
	}
	close(jobs)

	logChan := make(chan string, 100)
	resultChan := make(chan Result, numGames)

	var loggerWg sync.WaitGroup
	loggerWg.Add(1)
	go func() {
		defer loggerWg.Done()
		logfile.WriteString(CSVHeader)
		for line := range logChan {
			logfile.WriteString(line)
		}
		logfile.Close()
	}()

	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			runner, err := NewGameRunner(cfg, logChan)
			if err != nil {
				return err
			}
			for id := range jobs {
				res, err := runner.PlayGame(ctx, id)
				if err != nil {
					return err
				}
				resultChan <- res
			}
			return nil
		})
	}
	err = g.Wait()
	close(logChan)
	close(resultChan)
	loggerWg.Wait()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, numGames)
	for res := range resultChan {
		results = append(results, res)
	}
	log.Info().Int("games", len(results)).Msg("all-games-finished")
	return newSummary(results), nil
}
