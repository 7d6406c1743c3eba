// Package config loads engine configuration from flags, environment
// variables (prefix TWENTY48_) and an optional YAML file, in that order
// of precedence.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cdunn/twenty48/equity"
)

type Config struct {
	v *viper.Viper
}

// Keys for the typed accessors.
const (
	KeyDebug           = "debug"
	KeyMoveTime        = "move-time"
	KeyMaxChanceCells  = "max-chance-cells"
	KeyMaxDepth        = "max-depth"
	KeyTTable          = "ttable"
	KeyTTableFraction  = "ttable-mem-fraction"
	KeySnakeWeight     = "snake-weight"
	KeySmoothWeight    = "smoothness-weight"
	KeyEmptyWeight     = "empty-weight"
	KeyCornerWeight    = "corner-weight"
	KeyAutoplayGames   = "autoplay-games"
	KeyAutoplayThreads = "autoplay-threads"
	KeyAutoplayLogfile = "autoplay-logfile"
	KeyConfigFile      = "config"
)

// DefaultConfig returns a Config with every key at its default.
func DefaultConfig() *Config {
	c := &Config{v: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	w := equity.DefaultWeights()
	c.v.SetDefault(KeyDebug, false)
	c.v.SetDefault(KeyMoveTime, 200*time.Millisecond)
	c.v.SetDefault(KeyMaxChanceCells, 4)
	c.v.SetDefault(KeyMaxDepth, 50)
	c.v.SetDefault(KeyTTable, true)
	c.v.SetDefault(KeyTTableFraction, 0.05)
	c.v.SetDefault(KeySnakeWeight, w.Snake)
	c.v.SetDefault(KeySmoothWeight, w.Smoothness)
	c.v.SetDefault(KeyEmptyWeight, w.Empty)
	c.v.SetDefault(KeyCornerWeight, w.Corner)
	c.v.SetDefault(KeyAutoplayGames, 100)
	c.v.SetDefault(KeyAutoplayThreads, 1)
	c.v.SetDefault(KeyAutoplayLogfile, "/tmp/games.csv")
}

// Load parses command-line args, binds environment variables, and reads
// the optional config file named by --config.
func (c *Config) Load(args []string) error {
	if c.v == nil {
		c.v = viper.New()
	}
	c.setDefaults()

	fs := pflag.NewFlagSet("twenty48", pflag.ContinueOnError)
	fs.Bool(KeyDebug, false, "debug logging")
	fs.Duration(KeyMoveTime, 200*time.Millisecond, "nominal per-move time budget")
	fs.Int(KeyMaxChanceCells, 4, "empty cells expanded per chance node (0 = all)")
	fs.Int(KeyMaxDepth, 50, "iterative deepening depth cap")
	fs.Bool(KeyTTable, true, "use the transposition table")
	fs.Float64(KeyTTableFraction, 0.05, "fraction of physical memory for the transposition table")
	fs.Float64(KeySnakeWeight, c.v.GetFloat64(KeySnakeWeight), "snake adherence weight")
	fs.Float64(KeySmoothWeight, c.v.GetFloat64(KeySmoothWeight), "smoothness weight")
	fs.Float64(KeyEmptyWeight, c.v.GetFloat64(KeyEmptyWeight), "empty cell weight")
	fs.Float64(KeyCornerWeight, c.v.GetFloat64(KeyCornerWeight), "corner control weight")
	fs.Int(KeyAutoplayGames, 100, "number of self-play games")
	fs.Int(KeyAutoplayThreads, 1, "self-play worker threads")
	fs.String(KeyAutoplayLogfile, "/tmp/games.csv", "self-play turn log")
	fs.String(KeyConfigFile, "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.v.BindPFlags(fs); err != nil {
		return err
	}

	c.v.SetEnvPrefix("twenty48")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if cf := c.v.GetString(KeyConfigFile); cf != "" {
		c.v.SetConfigFile(cf)
		if err := c.v.ReadInConfig(); err != nil {
			return err
		}
		log.Info().Str("file", cf).Msg("read config file")
	}
	return nil
}

func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }

// Set overrides a single setting; used by the shell's `set` command.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// Weights assembles the evaluator weight vector from the settings.
func (c *Config) Weights() equity.Weights {
	return equity.Weights{
		Snake:      c.v.GetFloat64(KeySnakeWeight),
		Smoothness: c.v.GetFloat64(KeySmoothWeight),
		Empty:      c.v.GetFloat64(KeyEmptyWeight),
		Corner:     c.v.GetFloat64(KeyCornerWeight),
	}
}

// SanitizedSettings returns all settings for display.
func (c *Config) SanitizedSettings() map[string]any {
	return c.v.AllSettings()
}
