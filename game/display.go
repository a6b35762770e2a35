package game

import (
	"fmt"
	"strings"
)

// PlayerSymbols are the characters used to draw each player's pieces.
var PlayerSymbols = [NumPlayers]byte{'X', 'O'}

func (g *Game) symbol(sq int8) byte {
	if sq == Empty {
		return '.'
	}
	return PlayerSymbols[sq]
}

// ToDisplayText draws the board with the top row first, followed by a
// status line.
func (g *Game) ToDisplayText() string {
	var sb strings.Builder
	ncols := g.geom.NumCols()
	border := "   " + strings.Repeat("-", 2*ncols+1) + "\n"

	sb.WriteString("   ")
	for c := 0; c < ncols; c++ {
		fmt.Fprintf(&sb, " %d", c)
	}
	sb.WriteString("\n")
	sb.WriteString(border)
	for r := g.geom.NumRows() - 1; r >= 0; r-- {
		fmt.Fprintf(&sb, "%2d|", r+1)
		for c := 0; c < ncols; c++ {
			sb.WriteByte(' ')
			sb.WriteByte(g.symbol(g.At(c, r)))
		}
		sb.WriteString(" |\n")
	}
	sb.WriteString(border)
	sb.WriteString(g.statusLine())
	sb.WriteString("\n")
	return sb.String()
}

func (g *Game) statusLine() string {
	switch {
	case g.isMill:
		return fmt.Sprintf("%c wins after %d moves", PlayerSymbols[g.Winner()], g.moveCount)
	case g.IsDraw():
		return "Draw"
	default:
		return fmt.Sprintf("%c to move (move %d)  position %s",
			PlayerSymbols[g.onturn], g.moveCount+1, g.ToPositionString())
	}
}

func (g *Game) String() string {
	return g.ToDisplayText()
}
