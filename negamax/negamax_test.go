package negamax

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/quatro/board"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/move"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

const drawnGame = "0|323336363662122226655554550000001114441414"

func setUpSolver(t *testing.T, pos string) (*Solver, *game.Game) {
	t.Helper()
	g, err := game.FromPositionString(board.DefaultGeometry(), pos)
	if err != nil {
		t.Fatal(err)
	}
	s := new(Solver)
	if err := s.Init(g, nil); err != nil {
		t.Fatal(err)
	}
	return s, g
}

func solve(t *testing.T, pos string, depth int) *Result {
	t.Helper()
	s, _ := setUpSolver(t, pos)
	res, err := s.BestMoves(context.Background(), depth, 0)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestImmediateWin(t *testing.T) {
	is := is.New(t)
	res := solve(t, "0|0606061", 6)
	best, ok := res.Best()
	is.True(ok)
	is.Equal(best, move.ScoredMove{Column: 6, Score: move.WinValue})
	is.Equal(len(res.Moves), 7)
	is.True(res.ShortCircuited)
	is.Equal(res.Depth, 1)
	is.Equal(res.PV.Moves[0], 6)

	res = solve(t, "0|060606", 6)
	is.Equal(res.Moves[0], move.ScoredMove{Column: 0, Score: move.WinValue})
}

func TestWinInThree(t *testing.T) {
	is := is.New(t)
	res := solve(t, "0|03043", 6)
	// 2 and 5 both win; 2 is generated first.
	is.Equal(res.Moves[0], move.ScoredMove{Column: 2, Score: move.WinValue - 2})
	is.Equal(res.Moves[1], move.ScoredMove{Column: 5, Score: move.WinValue - 2})
	is.Equal(res.Depth, 3)
	is.True(res.ShortCircuited)
	is.Equal(res.PV.Moves[0], 2)

	res = solve(t, "0|2242", 6)
	is.Equal(res.Moves[0], move.ScoredMove{Column: 3, Score: move.WinValue - 2})
	is.True(!move.IsProven(res.Moves[1].Score))
}

func TestForcedLoss(t *testing.T) {
	is := is.New(t)
	for _, pos := range []string{"0|030415", "0|33405"} {
		res := solve(t, pos, 6)
		is.Equal(len(res.Moves), 7)
		for _, m := range res.Moves {
			is.Equal(m.Score, -move.WinValue+1)
		}
		// nothing to choose between, so generation order survives.
		is.Equal(move.Columns(res.Moves), []int{3, 4, 2, 5, 1, 6, 0})
		is.Equal(res.Depth, 2)
	}
}

func TestSingleSavingMove(t *testing.T) {
	is := is.New(t)
	res := solve(t, "0|03030", 6)
	is.Equal(res.Moves[0].Column, 0)
	is.Equal(move.NonLosing(res.Moves), 1)
	is.True(res.ShortCircuited)
}

func TestAlmostFullBoard(t *testing.T) {
	is := is.New(t)
	res := solve(t, drawnGame[:len(drawnGame)-3], 6)
	is.Equal(res.Moves, []move.ScoredMove{{Column: 4, Score: 0}, {Column: 1, Score: 0}})
	is.Equal(res.Depth, 6)
}

func TestTerminalPosition(t *testing.T) {
	is := is.New(t)
	s, g := setUpSolver(t, drawnGame)
	// the draw ends with player 0 to move.
	is.Equal(g.PlayerOnTurn(), 0)
	res, err := s.BestMoves(context.Background(), 6, 0)
	is.NoErr(err)
	is.Equal(len(res.Moves), 0)
	is.Equal(res.Depth, 0)
	_, ok := res.Best()
	is.True(!ok)
}

func TestOpeningPrefersCentre(t *testing.T) {
	is := is.New(t)
	res := solve(t, "0|", 4)
	is.Equal(res.Depth, 4)
	is.True(!res.ShortCircuited)
	is.Equal(res.Moves, []move.ScoredMove{
		{Column: 3, Score: -2}, {Column: 4, Score: -6}, {Column: 2, Score: -6}, {Column: 5, Score: -9}, {Column: 1, Score: -9}, {Column: 6, Score: -15}, {Column: 0, Score: -15},
	})
}

func TestOptimizationsDoNotChangeRanking(t *testing.T) {
	is := is.New(t)
	expected := []move.ScoredMove{
		{Column: 1, Score: -26}, {Column: 4, Score: -27},
		{Column: 3, Score: -move.WinValue + 3}, {Column: 2, Score: -move.WinValue + 3}, {Column: 5, Score: -move.WinValue + 3},
		{Column: 6, Score: -move.WinValue + 3}, {Column: 0, Score: -move.WinValue + 3},
	}
	for _, tc := range []struct{ tt, shallow bool }{
		{true, true}, {false, true}, {true, false}, {false, false},
	} {
		s, _ := setUpSolver(t, "0|332")
		s.SetTranspositionTableOptim(tc.tt)
		s.SetShallowSolutionOptim(tc.shallow)
		res, err := s.BestMoves(context.Background(), 6, 0)
		is.NoErr(err)
		is.Equal(res.Moves, expected)
		is.Equal(res.Depth, 6)
	}

	// An odd maxDepth ends on the last even depth even though the shallow
	// pass went one ply deeper.
	for _, pos := range []string{"0|", "0|332", "0|3324"} {
		plain, _ := setUpSolver(t, pos)
		plain.SetTranspositionTableOptim(false)
		plain.SetShallowSolutionOptim(false)
		want, err := plain.BestMoves(context.Background(), 3, 0)
		is.NoErr(err)
		is.Equal(want.Depth, 2)

		for _, tt := range []bool{true, false} {
			s, _ := setUpSolver(t, pos)
			s.SetTranspositionTableOptim(tt)
			s.SetShallowSolutionOptim(true)
			res, err := s.BestMoves(context.Background(), 3, 0)
			is.NoErr(err)
			is.True(!res.ShortCircuited)
			is.Equal(res.Depth, 2)
			is.Equal(res.Moves, want.Moves)
		}
	}
}

func TestTranspositionTableAgreesDeeper(t *testing.T) {
	is := is.New(t)
	with, _ := setUpSolver(t, "0|3324")
	without, _ := setUpSolver(t, "0|3324")
	without.SetTranspositionTableOptim(false)

	r1, err := with.BestMoves(context.Background(), 8, 0)
	is.NoErr(err)
	r2, err := without.BestMoves(context.Background(), 8, 0)
	is.NoErr(err)
	is.Equal(r1.Moves, r2.Moves)
	is.Equal(r1.Depth, r2.Depth)
}

func TestSearchLeavesGameUntouched(t *testing.T) {
	is := is.New(t)
	s, g := setUpSolver(t, "0|332")
	hash := g.Hash()
	pos := g.ToPositionString()
	_, err := s.BestMoves(context.Background(), 6, 0)
	is.NoErr(err)
	is.Equal(g.Hash(), hash)
	is.Equal(g.ToPositionString(), pos)
}

func TestNotYourTurn(t *testing.T) {
	is := is.New(t)
	s, g := setUpSolver(t, "0|")
	is.NoErr(g.PlayMove(3))
	_, err := s.BestMoves(context.Background(), 4, 0)
	is.True(errors.Is(err, ErrNotYourTurn))

	s.SetSolvingPlayer(1)
	res, err := s.BestMoves(context.Background(), 2, 0)
	is.NoErr(err)
	is.Equal(len(res.Moves), 7)
}

func TestInvalidDepth(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, "0|")
	_, err := s.BestMoves(context.Background(), 0, 0)
	is.True(errors.Is(err, ErrInvalidDepth))

	res, err := s.BestMoves(context.Background(), 1, 0)
	is.NoErr(err)
	is.Equal(res.Depth, 1)
	is.Equal(len(res.Moves), 7)
}

func TestDepthOneWithoutShallowPass(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, "0|")
	s.SetShallowSolutionOptim(false)
	res, err := s.BestMoves(context.Background(), 1, 0)
	is.NoErr(err)
	is.Equal(res.Depth, 1)
	is.Equal(len(res.Moves), 7)
}

func TestTimeout(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, "0|")
	res, err := s.BestMoves(context.Background(), 40, time.Millisecond)
	is.NoErr(err)
	is.True(res.TimedOut)
	is.True(res.Depth >= 1)
	is.True(res.Depth < 40)
	cols := move.Columns(res.Moves)
	seen := map[int]bool{}
	for _, c := range cols {
		seen[c] = true
	}
	is.Equal(len(cols), 7)
	is.Equal(len(seen), 7)
	is.True(res.Nodes > 0)
}

func TestCancelledContextFallsBack(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, "0|")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.BestMoves(ctx, 40, 0)
	is.NoErr(err)
	// The first even depth always completes.
	is.Equal(res.Depth, 2)
	is.True(res.TimedOut)
	is.Equal(len(res.Moves), 7)

	plain, _ := setUpSolver(t, "0|")
	want, err := plain.BestMoves(context.Background(), 2, 0)
	is.NoErr(err)
	is.Equal(res.Moves, want.Moves)
}

func TestLogStream(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, "0|")
	var buf bytes.Buffer
	s.SetLogStream(&buf)
	_, err := s.BestMoves(context.Background(), 2, 0)
	is.NoErr(err)
	is.True(strings.Contains(buf.String(), "- ply: 2\n"))
	is.True(strings.Contains(buf.String(), "  - col: 3\n"))
}
