package board

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestNumLines(t *testing.T) {
	is := is.New(t)
	g := DefaultGeometry()
	is.Equal(g.NumCells(), 42)
	is.Equal(g.NumLines(), 69)

	type tc struct {
		cols, rows, lines int
	}
	cases := []tc{
		{7, 6, 69},
		{4, 4, 10},
		{3, 3, 0},
		{4, 1, 1},
		{8, 7, 5*7 + 8*4 + 2*5*4},
	}
	for _, c := range cases {
		geom, err := NewGeometry(c.cols, c.rows)
		is.NoErr(err)
		is.Equal(geom.NumLines(), c.lines)
	}
}

func TestInvalidGeometry(t *testing.T) {
	is := is.New(t)
	_, err := NewGeometry(0, 6)
	is.True(err != nil)
	_, err = NewGeometry(11, 6)
	is.True(err != nil)
}

func TestLinesThrough(t *testing.T) {
	is := is.New(t)
	g := DefaultGeometry()
	is.Equal(len(g.LinesThrough(0)), 3)
	is.Equal(len(g.LinesThrough(g.CellIndex(6, 5))), 3)
	// the bottom centre cell: 4 horizontal, 1 vertical, 2 diagonal
	is.Equal(len(g.LinesThrough(g.CellIndex(3, 0))), 7)
	is.Equal(len(g.LinesThrough(g.CellIndex(3, 2))), 13)
	is.Equal(g.MaxLinesPerCell(), 13)

	// every line is registered once, and listed for each of its cells.
	seen := map[[LineLength]int]bool{}
	for i, line := range g.Lines() {
		is.True(!seen[line.Cells])
		seen[line.Cells] = true
		for _, cell := range line.Cells {
			found := false
			for _, li := range g.LinesThrough(cell) {
				if li == i {
					found = true
				}
			}
			is.True(found)
		}
	}
}

func TestLinesAreStraight(t *testing.T) {
	is := is.New(t)
	g := DefaultGeometry()
	for _, line := range g.Lines() {
		c0, r0 := g.ColRow(line.Cells[0])
		c1, r1 := g.ColRow(line.Cells[1])
		dc, dr := c1-c0, r1-r0
		for i := 1; i < LineLength; i++ {
			c, r := g.ColRow(line.Cells[i])
			is.Equal(c, c0+i*dc)
			is.Equal(r, r0+i*dr)
		}
	}
}

func TestWeights(t *testing.T) {
	is := is.New(t)
	g := DefaultGeometry()
	// line 0 is the bottom-left horizontal line.
	is.Equal(g.Line(0).Cells, [LineLength]int{0, 1, 2, 3})
	is.Equal(g.Weight(0), int32(48))
	for i, line := range g.Lines() {
		c0, _ := g.ColRow(line.Cells[0])
		c1, _ := g.ColRow(line.Cells[1])
		if c0 == c1 {
			is.Equal(g.Weight(i), int32(1))
		}
		is.True(g.Weight(i) > 0)
	}
}

func TestSearchOrder(t *testing.T) {
	is := is.New(t)
	is.Equal(DefaultGeometry().SearchOrder(), []int{3, 4, 2, 5, 1, 6, 0})
	g, err := NewGeometry(6, 5)
	is.NoErr(err)
	is.Equal(g.SearchOrder(), []int{2, 3, 1, 4, 0, 5})
	g, err = NewGeometry(1, 5)
	is.NoErr(err)
	is.Equal(g.SearchOrder(), []int{0})
}

func TestCellIndex(t *testing.T) {
	is := is.New(t)
	g := DefaultGeometry()
	is.Equal(g.CellIndex(0, 0), 0)
	is.Equal(g.CellIndex(6, 0), 6)
	is.Equal(g.CellIndex(0, 1), 7)
	is.Equal(g.CellIndex(6, 5), 41)
	c, r := g.ColRow(24)
	is.Equal(c, 3)
	is.Equal(r, 3)
}
