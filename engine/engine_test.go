package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/quatro/config"
	"github.com/domino14/quatro/equity"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/move"
	"github.com/domino14/quatro/negamax"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	st := DefaultSettings()
	st.MaxDepth = 6
	st.MaxThinking = 0
	e, err := NewEngine(st)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestSettingsFromDefaultConfig(t *testing.T) {
	is := is.New(t)
	is.Equal(SettingsFromConfig(config.DefaultConfig()), DefaultSettings())
}

func TestEngineReplies(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	is.Equal(e.EnginePlayer(), 1)
	is.True(!e.EngineToMove())

	_, err := e.BestMoves(context.Background(), 4, 0)
	is.True(errors.Is(err, negamax.ErrNotYourTurn))

	is.NoErr(e.PlayMove(3))
	is.True(e.EngineToMove())
	res, err := e.BestMoves(context.Background(), 4, 0)
	is.NoErr(err)
	is.Equal(len(res.Moves), 7)

	res, err = e.PlayBestMove(context.Background())
	is.NoErr(err)
	is.Equal(e.History(), []int{3, res.Moves[0].Column})
	is.Equal(e.PlayerOnTurn(), 0)
}

func TestEngineTakesTheWin(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	is.NoErr(e.LoadPosition("0|0606061"))
	res, err := e.PlayBestMove(context.Background())
	is.NoErr(err)
	is.Equal(res.Moves[0], move.ScoredMove{Column: 6, Score: move.WinValue})
	is.True(e.IsMill())
	is.True(e.IsTerminal())
	is.Equal(e.Winner(), 1)

	_, err = e.PlayBestMove(context.Background())
	is.True(errors.Is(err, ErrGameOver))
}

func TestUndoLast(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	_, err := e.UndoLast()
	is.True(errors.Is(err, game.ErrNothingToUndo))

	is.NoErr(e.PlayMove(2))
	is.NoErr(e.PlayMove(5))
	col, err := e.UndoLast()
	is.NoErr(err)
	is.Equal(col, 5)
	is.Equal(e.Position(), "0|2")
	is.True(errors.Is(e.UndoMove(4), game.ErrUndoMismatch))
	is.NoErr(e.UndoMove(2))

	is.NoErr(e.NewGame(1))
	is.Equal(e.Position(), "1|")
	is.True(e.EngineToMove())
}

func TestBestMovesAsyncUsesSnapshot(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	is.NoErr(e.PlayMove(3))

	ch := e.BestMovesAsync(context.Background(), 6, time.Second)
	// The real game moves on while the hint is computed.
	is.NoErr(e.PlayMove(4))
	is.NoErr(e.PlayMove(3))

	ar, ok := <-ch
	is.True(ok)
	is.NoErr(ar.Err)
	is.Equal(len(ar.Result.Moves), 7)
	_, ok = <-ch
	is.True(!ok)
	is.Equal(e.History(), []int{3, 4, 3})
}

func TestBestMovesAsyncFollowsSolverOptions(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	is.NoErr(e.LoadPosition("0|0606061"))

	ar := <-e.BestMovesAsync(context.Background(), 6, 0)
	is.NoErr(ar.Err)
	is.True(ar.Result.ShortCircuited)
	is.Equal(ar.Result.Depth, 1)

	// Changed straight on the solver, not through the engine.
	e.Solver().SetShallowSolutionOptim(false)
	e.Solver().SetEvaluator(&equity.WeightedEvaluator{})
	ar = <-e.BestMovesAsync(context.Background(), 6, 0)
	is.NoErr(ar.Err)
	is.True(!ar.Result.ShortCircuited)
	is.Equal(ar.Result.Depth, 2)
	is.Equal(ar.Result.Moves[0], move.ScoredMove{Column: 6, Score: move.WinValue})
	is.Equal(e.liveSettings().Evaluator, equity.WeightedEvaluatorName)

	e.SetShallowSolutions(true)
	e.SetTranspositionTable(false)
	is.True(e.Settings().ShallowSolutions)
	is.True(!e.Settings().TTable)
	is.True(!e.Solver().TranspositionTableOptim())
	ar = <-e.BestMovesAsync(context.Background(), 6, 0)
	is.NoErr(ar.Err)
	is.True(ar.Result.ShortCircuited)
}

func TestLoadPositionSetsFirstPlayer(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	is.NoErr(e.LoadPosition("1|2242"))
	is.Equal(e.Settings().FirstPlayer, 1)

	is.True(e.LoadPosition("0|9") != nil)
	is.Equal(e.Settings().FirstPlayer, 1)
	is.Equal(e.Position(), "1|2242")

	is.NoErr(e.Init())
	is.Equal(e.Position(), "1|")
}

func TestSetters(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	is.True(errors.Is(e.SetEnginePlayer(2), game.ErrBadPlayer))
	is.NoErr(e.SetEnginePlayer(0))
	is.True(e.EngineToMove())
	is.True(errors.Is(e.SetMaxDepth(0), negamax.ErrInvalidDepth))
	is.NoErr(e.SetMaxDepth(2))
	is.NoErr(e.SetEvaluator("weighted"))
	is.Equal(e.Solver().Evaluator().Name(), "weighted")
	is.True(e.SetEvaluator("nope") != nil)

	res, err := e.BestMoves(context.Background(), 0, 0)
	is.NoErr(err)
	is.Equal(res.Depth, 2)
}

func TestSmallBoard(t *testing.T) {
	is := is.New(t)
	st := DefaultSettings()
	st.Cols, st.Rows = 5, 4
	st.EnginePlayer = 0
	st.MaxThinking = 0
	e, err := NewEngine(st)
	is.NoErr(err)
	res, err := e.BestMoves(context.Background(), 4, 0)
	is.NoErr(err)
	is.Equal(len(res.Moves), 5)

	st.Cols = 11
	_, err = NewEngine(st)
	is.True(err != nil)
}
