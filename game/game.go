// Package game holds the mutable state of a four-in-a-row game and the
// move engine that plays and unplays column drops on it.
package game

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/domino14/quatro/board"
	"github.com/domino14/quatro/zobrist"
)

const NumPlayers = 2

// Empty marks an unoccupied square.
const Empty int8 = -1

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrNothingToUndo = errors.New("no move to undo")
	ErrUndoMismatch  = errors.New("undo does not match the last move played")
	ErrBadPosition   = errors.New("bad position string")
	ErrBadPlayer     = errors.New("player must be 0 or 1")
)

// LineOwner is the occupancy tag of a win line: a player index (0 or 1),
// LineEmpty, or LineNeutral once both players have a piece in it.
type LineOwner int8

const (
	LineEmpty   LineOwner = -1
	LineNeutral LineOwner = 2
)

// LineState is the live state of one win line. Count is the number of
// pieces of Owner in the line; it is frozen once the line is neutral.
type LineState struct {
	Count int8
	Owner LineOwner
}

// Game is a single play-through. It is not safe for concurrent use; searches
// that must run beside the main game work on a Copy.
type Game struct {
	geom    *board.Geometry
	zobrist *zobrist.Zobrist

	heights     []int
	squares     []int8
	onturn      int
	firstPlayer int
	moveCount   int
	isMill      bool
	hash        uint64
	lines       []LineState

	stateStack []*stateBackup
	stackPtr   int
}

// NewGame creates an empty game on geom, with firstPlayer to move.
func NewGame(geom *board.Geometry, firstPlayer int) (*Game, error) {
	if firstPlayer < 0 || firstPlayer >= NumPlayers {
		return nil, ErrBadPlayer
	}
	g := &Game{
		geom:    geom,
		zobrist: geom.Zobrist(),
		heights: make([]int, geom.NumCols()),
		squares: make([]int8, geom.NumCells()),
		lines:   make([]LineState, geom.NumLines()),
	}
	g.SetStateStackLength(geom.NumCells())
	g.reset(firstPlayer)
	return g, nil
}

// Init resets the game to an empty board with firstPlayer to move.
func (g *Game) Init(firstPlayer int) error {
	if firstPlayer < 0 || firstPlayer >= NumPlayers {
		return ErrBadPlayer
	}
	g.reset(firstPlayer)
	return nil
}

func (g *Game) reset(firstPlayer int) {
	for i := range g.heights {
		g.heights[i] = 0
	}
	for i := range g.squares {
		g.squares[i] = Empty
	}
	for i := range g.lines {
		g.lines[i] = LineState{Owner: LineEmpty}
	}
	g.firstPlayer = firstPlayer
	g.onturn = firstPlayer
	g.moveCount = 0
	g.isMill = false
	g.stackPtr = 0
	g.hash = g.zobrist.Hash(g.squares, g.onturn)
}

// ValidateMove returns a wrapped ErrIllegalMove if col cannot be played.
func (g *Game) ValidateMove(col int) error {
	if col < 0 || col >= g.geom.NumCols() {
		return fmt.Errorf("%w: column %d out of range [0, %d)", ErrIllegalMove, col, g.geom.NumCols())
	}
	if g.isMill {
		return fmt.Errorf("%w: the game is already won", ErrIllegalMove)
	}
	if g.heights[col] >= g.geom.NumRows() {
		return fmt.Errorf("%w: column %d is full", ErrIllegalMove, col)
	}
	return nil
}

// PlayMove drops a piece of the player on turn into col. On error the
// state is untouched.
func (g *Game) PlayMove(col int) error {
	if err := g.ValidateMove(col); err != nil {
		return err
	}
	g.playMove(col)
	return nil
}

// PlayMoves plays cols in order, stopping at the first illegal one.
func (g *Game) PlayMoves(cols []int) error {
	for i, c := range cols {
		if err := g.PlayMove(c); err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	return nil
}

// playMove is the unchecked version used by the search, which only ever
// plays generated moves.
func (g *Game) playMove(col int) {
	cell := g.geom.CellIndex(col, g.heights[col])
	player := LineOwner(g.onturn)

	g.backupState(col)
	st := g.stateStack[g.stackPtr-1]
	for _, li := range g.geom.LinesThrough(cell) {
		ls := g.lines[li]
		st.lines = append(st.lines, ls)
		switch ls.Owner {
		case LineNeutral:
			continue
		case LineEmpty:
			ls = LineState{Count: 1, Owner: player}
		case player:
			ls.Count++
		default:
			// both players now have a piece in here.
			ls.Owner = LineNeutral
		}
		g.lines[li] = ls
		if ls.Owner == player && ls.Count >= board.LineLength {
			g.isMill = true
		}
	}

	g.squares[cell] = int8(g.onturn)
	g.heights[col]++
	g.moveCount++
	g.hash = g.zobrist.AddPiece(g.hash, cell, g.onturn)
	g.onturn = otherPlayer(g.onturn)
}

// UndoMove unplays the last move, which must have been played in col.
func (g *Game) UndoMove(col int) error {
	if g.stackPtr == 0 {
		return ErrNothingToUndo
	}
	if last := g.stateStack[g.stackPtr-1].col; last != col {
		return fmt.Errorf("%w: last move was column %d, not %d", ErrUndoMismatch, last, col)
	}
	g.UnplayLastMove()
	return nil
}

// GenerateMoves returns the playable columns in search order. A won or
// full board has no moves.
func (g *Game) GenerateMoves() []int {
	if g.IsTerminal() {
		return nil
	}
	return lo.Filter(g.geom.SearchOrder(), func(c int, _ int) bool {
		return g.heights[c] < g.geom.NumRows()
	})
}

// CanPlay reports whether col has room. It does not check for a mill.
func (g *Game) CanPlay(col int) bool {
	return g.heights[col] < g.geom.NumRows()
}

func (g *Game) IsMill() bool {
	return g.isMill
}

func (g *Game) IsFull() bool {
	return g.moveCount == g.geom.NumCells()
}

func (g *Game) IsTerminal() bool {
	return g.isMill || g.IsFull()
}

func (g *Game) IsDraw() bool {
	return g.IsFull() && !g.isMill
}

// Winner returns the player who completed a mill, or -1.
func (g *Game) Winner() int {
	if !g.isMill {
		return -1
	}
	return otherPlayer(g.onturn)
}

func (g *Game) PlayerOnTurn() int {
	return g.onturn
}

func (g *Game) FirstPlayer() int {
	return g.firstPlayer
}

func (g *Game) MoveCount() int {
	return g.moveCount
}

func (g *Game) Hash() uint64 {
	return g.hash
}

func (g *Game) Geometry() *board.Geometry {
	return g.geom
}

// Height returns the number of pieces in col.
func (g *Game) Height(col int) int {
	return g.heights[col]
}

// Heights returns a copy of the column heights.
func (g *Game) Heights() []int {
	return append([]int(nil), g.heights...)
}

// At returns the owner of (col, row), or Empty.
func (g *Game) At(col, row int) int8 {
	return g.squares[g.geom.CellIndex(col, row)]
}

func (g *Game) LineState(i int) LineState {
	return g.lines[i]
}

// LineStates returns a copy of every line state.
func (g *Game) LineStates() []LineState {
	return append([]LineState(nil), g.lines...)
}

// History returns the columns played so far, in order.
func (g *Game) History() []int {
	h := make([]int, g.stackPtr)
	for i := 0; i < g.stackPtr; i++ {
		h[i] = g.stateStack[i].col
	}
	return h
}

// LastMove returns the last column played, or -1 on an empty board.
func (g *Game) LastMove() int {
	if g.stackPtr == 0 {
		return -1
	}
	return g.stateStack[g.stackPtr-1].col
}

func otherPlayer(p int) int {
	return 1 - p
}
