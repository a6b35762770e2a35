// Package equity contains the static evaluators used at the search horizon.
package equity

import (
	"errors"
	"fmt"

	"github.com/domino14/quatro/game"
)

var ErrUnknownEvaluator = errors.New("unknown evaluator")

const (
	CubeEvaluatorName     = "cube"
	WeightedEvaluatorName = "weighted"
)

// Evaluator scores a non-terminal position from the point of view of the
// player on turn. Positive is good for that player. The scores are only
// meaningful relative to each other inside one search; they always stay
// well clear of the proven-win band.
type Evaluator interface {
	Evaluate(g *game.Game) int32
	Name() string
}

// NewEvaluator returns the evaluator registered under name.
func NewEvaluator(name string) (Evaluator, error) {
	switch name {
	case CubeEvaluatorName, "":
		return &CubeEvaluator{}, nil
	case WeightedEvaluatorName:
		return &WeightedEvaluator{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvaluator, name)
}
