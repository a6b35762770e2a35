package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/quatro/board"
)

// ToPositionString serializes the game as "<first player>|<columns>", for
// example "0|3342". Only boards up to ten columns wide can be written this
// way, which is every board NewGeometry will build.
func (g *Game) ToPositionString() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(g.firstPlayer))
	sb.WriteByte('|')
	for _, c := range g.History() {
		sb.WriteByte(byte('0' + c))
	}
	return sb.String()
}

// FromPositionString builds a game on geom by replaying a position string.
func FromPositionString(geom *board.Geometry, s string) (*Game, error) {
	first, cols, err := ParsePositionString(s)
	if err != nil {
		return nil, err
	}
	g, err := NewGame(geom, first)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPosition, err)
	}
	if err := g.PlayMoves(cols); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPosition, err)
	}
	return g, nil
}

// LoadPosition replaces the state of g with the position in s. On error g
// is left unchanged.
func (g *Game) LoadPosition(s string) error {
	ng, err := FromPositionString(g.geom, s)
	if err != nil {
		return err
	}
	*g = *ng
	return nil
}

// ParsePositionString splits a position string into the first player and
// the list of columns played. The columns are not checked for legality.
func ParsePositionString(s string) (int, []int, error) {
	s = strings.TrimSpace(s)
	before, after, found := strings.Cut(s, "|")
	if !found {
		return 0, nil, fmt.Errorf("%w: missing '|' in %q", ErrBadPosition, s)
	}
	first, err := strconv.Atoi(before)
	if err != nil || first < 0 || first >= NumPlayers {
		return 0, nil, fmt.Errorf("%w: first player %q", ErrBadPosition, before)
	}
	cols := make([]int, 0, len(after))
	for i, ch := range after {
		if ch < '0' || ch > '9' {
			return 0, nil, fmt.Errorf("%w: bad column %q at offset %d", ErrBadPosition, ch, i)
		}
		cols = append(cols, int(ch-'0'))
	}
	return first, cols, nil
}
