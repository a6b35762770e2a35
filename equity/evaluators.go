package equity

import (
	"github.com/domino14/quatro/game"
)

// CubeEvaluator sums cnt^3 over every live line: positive for lines held
// by the player on turn, negative for the opponent's.
type CubeEvaluator struct{}

func (c *CubeEvaluator) Name() string { return CubeEvaluatorName }

func (c *CubeEvaluator) Evaluate(g *game.Game) int32 {
	var total int32
	onturn := game.LineOwner(g.PlayerOnTurn())
	for i, n := 0, g.Geometry().NumLines(); i < n; i++ {
		ls := g.LineState(i)
		total += signedCube(ls, onturn)
	}
	return total
}

// WeightedEvaluator is CubeEvaluator with every line scaled by its
// positional weight, so low horizontal and diagonal lines count for more
// than vertical ones.
type WeightedEvaluator struct{}

func (w *WeightedEvaluator) Name() string { return WeightedEvaluatorName }

func (w *WeightedEvaluator) Evaluate(g *game.Game) int32 {
	var total int32
	geom := g.Geometry()
	onturn := game.LineOwner(g.PlayerOnTurn())
	for i, n := 0, geom.NumLines(); i < n; i++ {
		ls := g.LineState(i)
		total += signedCube(ls, onturn) * geom.Weight(i)
	}
	return total
}

func signedCube(ls game.LineState, onturn game.LineOwner) int32 {
	switch ls.Owner {
	case game.LineEmpty, game.LineNeutral:
		return 0
	}
	c := int32(ls.Count)
	if ls.Owner == onturn {
		return c * c * c
	}
	return -c * c * c
}
