// Package config loads settings from flags, QUATRO_* environment variables
// and an optional config.yaml in the data path.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigCPUProfile          = "cpu-profile"
	ConfigMemProfile          = "mem-profile"
	ConfigDataPath            = "data-path"
	ConfigCols                = "cols"
	ConfigRows                = "rows"
	ConfigFirstPlayer         = "first-player"
	ConfigEnginePlayer        = "engine-player"
	ConfigMaxDepth            = "max-depth"
	ConfigMaxThinkingMs       = "max-thinking-ms"
	ConfigEvaluator           = "evaluator"
	ConfigTTableOptim         = "ttable"
	ConfigTTableMemFraction   = "ttable-mem-fraction"
	ConfigShallowSolutions    = "shallow-solutions"
	ConfigSelfPlayDB          = "selfplay-db"
	ConfigSelfPlayConcurrency = "selfplay-threads"
)

const configFileName = "config"

// Config is a thin wrapper around viper. Everything is read through the
// embedded Get* methods using the keys above.
type Config struct {
	*viper.Viper
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("quatro", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "file to write a cpu profile to")
	fs.String(ConfigMemProfile, "", "file to write a memory profile to")
	fs.String(ConfigDataPath, "./data", "directory holding config.yaml, seeds and the self-play database")
	fs.Int(ConfigCols, 7, "board columns")
	fs.Int(ConfigRows, 6, "board rows")
	fs.Int(ConfigFirstPlayer, 0, "player who moves first (0 or 1)")
	fs.Int(ConfigEnginePlayer, 1, "player the engine plays (0 or 1)")
	fs.Int(ConfigMaxDepth, 12, "maximum search depth in plies")
	fs.Int(ConfigMaxThinkingMs, 2000, "search deadline in milliseconds, 0 for none")
	fs.String(ConfigEvaluator, "cube", "static evaluator: cube or weighted")
	fs.Bool(ConfigTTableOptim, true, "use the transposition table")
	fs.Float64(ConfigTTableMemFraction, 1.0/256, "share of system memory for the transposition table")
	fs.Bool(ConfigShallowSolutions, true, "look for forced results at depths 1-3 before deepening")
	fs.String(ConfigSelfPlayDB, "", "sqlite file self-play games are stored in; empty disables it")
	fs.Int(ConfigSelfPlayConcurrency, 0, "concurrent self-play games; 0 means one per cpu")
	return fs
}

// DefaultConfig returns a config holding only the flag defaults. It does not
// look at the environment or the file system.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	fs := newFlagSet()
	if err := c.BindPFlags(fs); err != nil {
		panic(err)
	}
	return c
}

// Load parses args, then overlays environment variables and the optional
// config file. Flags given explicitly always win.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("quatro")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.SetConfigName(configFileName)
	c.SetConfigType("yaml")
	c.AddConfigPath(c.GetString(ConfigDataPath))
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		log.Debug().Msg("no config file found; using flags and environment")
	}
	return nil
}

// AdjustRelativePaths makes a relative data path relative to basepath,
// usually the directory of the executable.
func (c *Config) AdjustRelativePaths(basepath string) {
	dp := c.GetString(ConfigDataPath)
	if filepath.IsAbs(dp) {
		return
	}
	c.Set(ConfigDataPath, filepath.Join(basepath, dp))
}

// SanitizedSettings returns every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// Write saves the current settings to config.yaml in the data path.
func (c *Config) Write() error {
	dp := c.GetString(ConfigDataPath)
	if err := os.MkdirAll(dp, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dp, configFileName+".yaml")
	log.Info().Str("path", path).Msg("writing-config")
	return c.WriteConfigAs(path)
}
