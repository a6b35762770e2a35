package negamax

import (
	"context"
	"fmt"

	"github.com/domino14/quatro/move"
)

// The deadline is polled once every nodeCheckMask+1 nodes.
const nodeCheckMask = 4096 - 1

// searchRoot scores every legal root move with a full window, so each score
// is exact for the given depth. The list comes back sorted best first, ties
// kept in generation order.
func (s *Solver) searchRoot(ctx context.Context, depth int) ([]move.ScoredMove, PVLine, error) {
	g := s.pos
	cols := g.GenerateMoves()
	scored := make([]move.ScoredMove, 0, len(cols))
	pvs := make(map[int]PVLine, len(cols))

	for _, col := range cols {
		if err := g.PlayMove(col); err != nil {
			return nil, PVLine{}, err
		}
		childPV := PVLine{}
		value, err := s.negamax(ctx, depth-1, -move.Infinity, move.Infinity, &childPV)
		g.UnplayLastMove()
		if err != nil {
			return nil, PVLine{}, err
		}
		scored = append(scored, move.ScoredMove{Column: col, Score: -value})
		pv := PVLine{}
		pv.Update(col, childPV, -value)
		pvs[col] = pv
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  - col: %d\n    score: %d\n", col, -value)
		}
	}
	move.SortByScore(scored)
	var pv PVLine
	if len(scored) > 0 {
		pv = pvs[scored[0].Column]
	}
	return scored, pv, nil
}

// negamax returns the fail-hard value of s.pos for the player on turn: the
// result is clamped to α whenever no move improves on it. Mills are scored
// by how far from the root they happen, so faster wins and slower losses
// rank higher.
func (s *Solver) negamax(ctx context.Context, depth int, α, β int32, pv *PVLine) (int32, error) {
	if s.nodes.Add(1)&nodeCheckMask == 0 && ctx.Err() != nil {
		return 0, ctx.Err()
	}
	g := s.pos
	if g.IsMill() {
		ply := int32(g.MoveCount() - s.rootMoveCount - 1)
		return -move.WinValue + ply, nil
	}
	if g.IsFull() {
		return 0, nil
	}
	if depth == 0 {
		return s.evaluator.Evaluate(g), nil
	}

	alphaOrig := α
	var key uint64
	if s.transpositionTableOptim {
		key = g.Hash()
		if score, ok := s.ttable.lookup(key, depth); ok {
			// Exact value; clamp it the way this window would have.
			switch {
			case score <= α:
				return α, nil
			case score >= β:
				return β, nil
			}
			return score, nil
		}
	}

	childPV := PVLine{}
	for _, col := range g.Geometry().SearchOrder() {
		if !g.CanPlay(col) {
			continue
		}
		if err := g.PlayMove(col); err != nil {
			return 0, err
		}
		value, err := s.negamax(ctx, depth-1, -β, -α, &childPV)
		g.UnplayLastMove()
		if err != nil {
			return 0, err
		}
		value = -value
		if value > α {
			α = value
			pv.Update(col, childPV, value)
		}
		if α >= β {
			break // beta cut-off
		}
		childPV.Clear()
	}

	// Only exact, proven values are worth keeping. Anything at the window
	// edges is a bound, and heuristic scores depend on the horizon.
	if s.transpositionTableOptim && alphaOrig < α && α < β && move.IsProven(α) {
		s.ttable.store(key, depth, α)
	}
	return α, nil
}
