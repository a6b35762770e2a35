package negamax

import (
	"fmt"
	"strings"
)

// PVLine is a principal variation: the columns of the best line of play
// found, starting from the position searched.
type PVLine struct {
	Moves []int
	score int32
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = nil
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(col int, newPVLine PVLine, score int32) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, col)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

func (pvLine PVLine) Score() int32 {
	return pvLine.score
}

func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d\n", pvLine.score)
	for i, col := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %d\n", i+1, col)
	}
	return sb.String()
}

// NLBString is String without line breaks, for logs.
func (pvLine PVLine) NLBString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d; ", pvLine.score)
	for i, col := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %d; ", i+1, col)
	}
	return sb.String()
}
