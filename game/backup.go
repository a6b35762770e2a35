package game

// stateBackup is one frame of the transition stack. It holds only what a
// single drop can change: the column, the previous mill flag, and the
// previous state of every line through the dropped cell, in the order the
// geometry lists them.
type stateBackup struct {
	col    int
	isMill bool
	lines  []LineState
}

// SetStateStackLength preallocates the transition stack. A game never needs
// more frames than the board has cells.
func (g *Game) SetStateStackLength(length int) {
	g.stateStack = make([]*stateBackup, length)
	for idx := range g.stateStack {
		// Allocate every frame now so the search never has to.
		g.stateStack[idx] = &stateBackup{
			lines: make([]LineState, 0, g.geom.MaxLinesPerCell()),
		}
	}
}

func (g *Game) backupState(col int) {
	st := g.stateStack[g.stackPtr]
	st.col = col
	st.isMill = g.isMill
	st.lines = st.lines[:0]
	g.stackPtr++
}

// UnplayLastMove pops the last frame and restores exactly the state from
// before that drop. It panics if nothing has been played; callers that can't
// guarantee that should use UndoMove.
func (g *Game) UnplayLastMove() {
	g.stackPtr--
	b := g.stateStack[g.stackPtr]

	col := b.col
	g.heights[col]--
	cell := g.geom.CellIndex(col, g.heights[col])
	// The piece belonged to the player who is now back on turn.
	g.onturn = otherPlayer(g.onturn)
	g.moveCount--
	g.squares[cell] = Empty
	g.hash = g.zobrist.AddPiece(g.hash, cell, g.onturn)
	for i, li := range g.geom.LinesThrough(cell) {
		g.lines[li] = b.lines[i]
	}
	g.isMill = b.isMill
}

// ResetToFirstState unplays every move on the stack.
func (g *Game) ResetToFirstState() {
	for g.stackPtr > 0 {
		g.UnplayLastMove()
	}
}

// Copy creates a deep copy of the game, including its transition stack, so
// the copy can undo moves made before it was taken. The geometry is shared.
func (g *Game) Copy() *Game {
	cp := &Game{
		geom:        g.geom,
		zobrist:     g.zobrist,
		heights:     append([]int(nil), g.heights...),
		squares:     append([]int8(nil), g.squares...),
		onturn:      g.onturn,
		firstPlayer: g.firstPlayer,
		moveCount:   g.moveCount,
		isMill:      g.isMill,
		hash:        g.hash,
		lines:       append([]LineState(nil), g.lines...),
		stackPtr:    g.stackPtr,
	}
	cp.SetStateStackLength(len(g.stateStack))
	for i := 0; i < g.stackPtr; i++ {
		src, dst := g.stateStack[i], cp.stateStack[i]
		dst.col = src.col
		dst.isMill = src.isMill
		dst.lines = append(dst.lines[:0], src.lines...)
	}
	return cp
}
