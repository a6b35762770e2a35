package engine

import (
	"time"

	"github.com/domino14/quatro/config"
	"github.com/domino14/quatro/equity"
	"github.com/domino14/quatro/negamax"
)

// Settings is everything needed to build an Engine.
type Settings struct {
	Cols, Rows        int
	FirstPlayer       int
	EnginePlayer      int
	MaxDepth          int
	MaxThinking       time.Duration
	Evaluator         string
	TTable            bool
	TTableMemFraction float64
	ShallowSolutions  bool
}

func DefaultSettings() Settings {
	return Settings{
		Cols:              7,
		Rows:              6,
		FirstPlayer:       0,
		EnginePlayer:      1,
		MaxDepth:          12,
		MaxThinking:       2 * time.Second,
		Evaluator:         equity.CubeEvaluatorName,
		TTable:            true,
		TTableMemFraction: negamax.DefaultTTableFraction,
		ShallowSolutions:  true,
	}
}

// SettingsFromConfig reads the engine keys out of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Cols:              cfg.GetInt(config.ConfigCols),
		Rows:              cfg.GetInt(config.ConfigRows),
		FirstPlayer:       cfg.GetInt(config.ConfigFirstPlayer),
		EnginePlayer:      cfg.GetInt(config.ConfigEnginePlayer),
		MaxDepth:          cfg.GetInt(config.ConfigMaxDepth),
		MaxThinking:       time.Duration(cfg.GetInt(config.ConfigMaxThinkingMs)) * time.Millisecond,
		Evaluator:         cfg.GetString(config.ConfigEvaluator),
		TTable:            cfg.GetBool(config.ConfigTTableOptim),
		TTableMemFraction: cfg.GetFloat64(config.ConfigTTableMemFraction),
		ShallowSolutions:  cfg.GetBool(config.ConfigShallowSolutions),
	}
}
