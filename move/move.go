// Package move holds the scored root moves a search reports.
package move

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	// WinValue is the score of a mill for the side that completes it, as
	// seen from the root. A win k plies deeper scores WinValue - k.
	WinValue int32 = 1_000_000
	// ProvenMargin is how far from WinValue a score may be and still count
	// as a forced result. Heuristic scores never reach this band.
	ProvenMargin int32 = 50
	// Infinity bounds every search window.
	Infinity int32 = WinValue + 1
)

// ScoredMove is a column together with the score the search gave it, from
// the point of view of the player who would drop there.
type ScoredMove struct {
	Column int   `json:"column" yaml:"column"`
	Score  int32 `json:"score" yaml:"score"`
}

func (m ScoredMove) String() string {
	return fmt.Sprintf("<col: %d score: %d>", m.Column, m.Score)
}

// ShortDescription renders the move the way the shell prints it, e.g.
// "3 (win in 5)" or "2 (-12)".
func (m ScoredMove) ShortDescription() string {
	return strconv.Itoa(m.Column) + " (" + DescribeScore(m.Score) + ")"
}

// DescribeScore turns proven scores into "win in k" / "loss in k".
func DescribeScore(s int32) string {
	switch {
	case IsProvenWin(s):
		return fmt.Sprintf("win in %d", WinValue-s+1)
	case IsProvenLoss(s):
		return fmt.Sprintf("loss in %d", WinValue+s+1)
	default:
		return strconv.Itoa(int(s))
	}
}

func IsProvenWin(s int32) bool {
	return s >= WinValue-ProvenMargin
}

func IsProvenLoss(s int32) bool {
	return s <= -WinValue+ProvenMargin
}

// IsProven reports whether s is an exact game-theoretic result rather than
// a heuristic estimate.
func IsProven(s int32) bool {
	return IsProvenWin(s) || IsProvenLoss(s)
}

// SortByScore sorts moves by descending score. Equal scores keep their
// relative order, so ties favour the earlier generated column.
func SortByScore(moves []ScoredMove) {
	slices.SortStableFunc(moves, func(a, b ScoredMove) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
}

// Decided reports whether a ranked list leaves nothing for a deeper search
// to find: some move wins by force, every move loses by force, or exactly
// one move avoids a forced loss.
func Decided(moves []ScoredMove) bool {
	if len(moves) == 0 {
		return true
	}
	if lo.SomeBy(moves, func(m ScoredMove) bool { return IsProvenWin(m.Score) }) {
		return true
	}
	return NonLosing(moves) <= 1
}

// NonLosing counts the moves that are not proven losses.
func NonLosing(moves []ScoredMove) int {
	return lo.CountBy(moves, func(m ScoredMove) bool { return !IsProvenLoss(m.Score) })
}

// Columns returns the columns of moves, in order.
func Columns(moves []ScoredMove) []int {
	return lo.Map(moves, func(m ScoredMove, _ int) int { return m.Column })
}

// FormatList renders a ranked list on one line.
func FormatList(moves []ScoredMove) string {
	return strings.Join(lo.Map(moves, func(m ScoredMove, _ int) string {
		return m.ShortDescription()
	}), ", ")
}
