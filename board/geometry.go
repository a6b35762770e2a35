// Package board holds the static geometry of a gravity-drop four-in-a-row
// board: its dimensions, the table of every possible four-in-a-row line and
// the inverse index from cells to the lines running through them.
package board

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/quatro/zobrist"
)

const (
	DefaultCols = 7
	DefaultRows = 6
	// LineLength is the number of pieces in a row needed for a mill.
	LineLength = 4
	// MaxCols is bounded by the one-digit-per-move position notation.
	MaxCols = 10
)

// direction is a (delta row, delta col) step.
type direction struct {
	dr, dc int
}

// The four directions walked from every origin cell: →, ↗, ↑, ↘.
var directions = [4]direction{{0, 1}, {1, 1}, {1, 0}, {-1, 1}}

// Line is one run of LineLength cells.
type Line struct {
	Cells  [LineLength]int
	Weight int32
}

// Geometry is immutable once built and is safe to share between games
// and goroutines.
type Geometry struct {
	numCols int
	numRows int

	lines        []Line
	linesThrough [][]int
	maxPerCell   int
	searchOrder  []int

	zobrist *zobrist.Zobrist
}

var (
	defaultGeometry     *Geometry
	defaultGeometryOnce sync.Once
)

// DefaultGeometry returns the shared 7x6 geometry. It is built on first use.
func DefaultGeometry() *Geometry {
	defaultGeometryOnce.Do(func() {
		var err error
		defaultGeometry, err = NewGeometry(DefaultCols, DefaultRows)
		if err != nil {
			panic(err)
		}
	})
	return defaultGeometry
}

// NewGeometry builds the win-line table for a board of the given size.
func NewGeometry(cols, rows int) (*Geometry, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid board size %dx%d", cols, rows)
	}
	if cols > MaxCols {
		return nil, fmt.Errorf("at most %d columns are supported, got %d", MaxCols, cols)
	}
	g := &Geometry{numCols: cols, numRows: rows}
	g.computeLines()
	g.computeSearchOrder()
	g.zobrist = &zobrist.Zobrist{}
	g.zobrist.Initialize(g.NumCells())
	log.Debug().Int("cols", cols).Int("rows", rows).Int("lines", len(g.lines)).
		Int("max-lines-per-cell", g.maxPerCell).Msg("built-geometry")
	return g, nil
}

func (g *Geometry) computeLines() {
	for r := 0; r < g.numRows; r++ {
		for c := 0; c < g.numCols; c++ {
			for _, d := range directions {
				if line, ok := g.walk(r, c, d); ok {
					g.lines = append(g.lines, line)
				}
			}
		}
	}
	g.linesThrough = make([][]int, g.NumCells())
	for i, line := range g.lines {
		for _, cell := range line.Cells {
			g.linesThrough[cell] = append(g.linesThrough[cell], i)
		}
	}
	for _, lt := range g.linesThrough {
		if len(lt) > g.maxPerCell {
			g.maxPerCell = len(lt)
		}
	}
}

// walk collects LineLength cells from (r, c) in direction d. Every physical
// line has exactly one origin per direction, so no deduplication pass is
// needed.
func (g *Geometry) walk(r, c int, d direction) (Line, bool) {
	var line Line
	startRow := r
	n := 0
	for n < LineLength && r >= 0 && r < g.numRows && c >= 0 && c < g.numCols {
		line.Cells[n] = g.CellIndex(c, r)
		n++
		r += d.dr
		c += d.dc
	}
	if n < LineLength {
		return Line{}, false
	}
	line.Weight = lineWeight(d, g.numRows-startRow)
	return line, true
}

// lineWeight favours low horizontal lines, then low diagonals; vertical
// lines get the minimum weight.
func lineWeight(d direction, fromTop int) int32 {
	switch {
	case d.dc == 0:
		return 1
	case d.dr != 0:
		return int32(4 * fromTop)
	default:
		return int32(8 * fromTop)
	}
}

// computeSearchOrder orders columns centre-out: 3, 4, 2, 5, 1, 6, 0 for
// seven columns.
func (g *Geometry) computeSearchOrder() {
	center := (g.numCols - 1) / 2
	g.searchOrder = make([]int, 0, g.numCols)
	g.searchOrder = append(g.searchOrder, center)
	for off := 1; len(g.searchOrder) < g.numCols; off++ {
		if c := center + off; c < g.numCols {
			g.searchOrder = append(g.searchOrder, c)
		}
		if c := center - off; c >= 0 {
			g.searchOrder = append(g.searchOrder, c)
		}
	}
}

func (g *Geometry) NumCols() int  { return g.numCols }
func (g *Geometry) NumRows() int  { return g.numRows }
func (g *Geometry) NumCells() int { return g.numCols * g.numRows }
func (g *Geometry) NumLines() int { return len(g.lines) }

// CellIndex returns col + NumCols*row. Row 0 is the bottom row.
func (g *Geometry) CellIndex(col, row int) int {
	return col + g.numCols*row
}

// ColRow is the inverse of CellIndex.
func (g *Geometry) ColRow(cell int) (col, row int) {
	return cell % g.numCols, cell / g.numCols
}

func (g *Geometry) Line(i int) Line {
	return g.lines[i]
}

func (g *Geometry) Lines() []Line {
	return g.lines
}

// LinesThrough returns the indices of all lines containing cell. The
// returned slice must not be modified.
func (g *Geometry) LinesThrough(cell int) []int {
	return g.linesThrough[cell]
}

func (g *Geometry) MaxLinesPerCell() int {
	return g.maxPerCell
}

func (g *Geometry) Weight(line int) int32 {
	return g.lines[line].Weight
}

// SearchOrder returns the columns in the order move generation emits them.
// The returned slice must not be modified.
func (g *Geometry) SearchOrder() []int {
	return g.searchOrder
}

func (g *Geometry) Zobrist() *zobrist.Zobrist {
	return g.zobrist
}

func (g *Geometry) String() string {
	return fmt.Sprintf("%dx%d (%d lines)", g.numCols, g.numRows, len(g.lines))
}
