// Package engine is the narrow surface a user interface drives: it owns one
// game and one solver and keeps them in step.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/quatro/board"
	"github.com/domino14/quatro/equity"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/negamax"
)

var ErrGameOver = errors.New("the game is over")

type Engine struct {
	settings Settings
	geom     *board.Geometry
	game     *game.Game
	solver   *negamax.Solver
}

// NewEngine builds an engine with an empty board.
func NewEngine(st Settings) (*Engine, error) {
	var geom *board.Geometry
	if st.Cols == board.DefaultCols && st.Rows == board.DefaultRows {
		geom = board.DefaultGeometry()
	} else {
		var err error
		geom, err = board.NewGeometry(st.Cols, st.Rows)
		if err != nil {
			return nil, err
		}
	}
	if st.EnginePlayer < 0 || st.EnginePlayer >= game.NumPlayers {
		return nil, fmt.Errorf("engine player: %w", game.ErrBadPlayer)
	}
	g, err := game.NewGame(geom, st.FirstPlayer)
	if err != nil {
		return nil, err
	}
	e := &Engine{settings: st, geom: geom, game: g}
	if e.solver, err = newSolver(g, st); err != nil {
		return nil, err
	}
	return e, nil
}

func newSolver(g *game.Game, st Settings) (*negamax.Solver, error) {
	ev, err := equity.NewEvaluator(st.Evaluator)
	if err != nil {
		return nil, err
	}
	s := &negamax.Solver{}
	if err := s.Init(g, ev); err != nil {
		return nil, err
	}
	s.SetSolvingPlayer(st.EnginePlayer)
	s.SetTranspositionTableOptim(st.TTable)
	if st.TTableMemFraction > 0 {
		s.SetTranspositionTableFraction(st.TTableMemFraction)
	}
	s.SetShallowSolutionOptim(st.ShallowSolutions)
	return s, nil
}

// Init resets to an empty board with the configured first player.
func (e *Engine) Init() error {
	return e.game.Init(e.settings.FirstPlayer)
}

// NewGame resets to an empty board with firstPlayer to move.
func (e *Engine) NewGame(firstPlayer int) error {
	if err := e.game.Init(firstPlayer); err != nil {
		return err
	}
	e.settings.FirstPlayer = firstPlayer
	return nil
}

func (e *Engine) PlayMove(col int) error {
	return e.game.PlayMove(col)
}

func (e *Engine) UndoMove(col int) error {
	return e.game.UndoMove(col)
}

// UndoLast undoes whatever move was played last.
func (e *Engine) UndoLast() (int, error) {
	col := e.game.LastMove()
	if col < 0 {
		return -1, game.ErrNothingToUndo
	}
	return col, e.game.UndoMove(col)
}

func (e *Engine) IsTerminal() bool { return e.game.IsTerminal() }
func (e *Engine) IsMill() bool     { return e.game.IsMill() }
func (e *Engine) IsDraw() bool     { return e.game.IsDraw() }
func (e *Engine) Winner() int      { return e.game.Winner() }

// BestMoves ranks the engine player's moves. maxDepth and maxThinking
// override the configured values when positive.
func (e *Engine) BestMoves(ctx context.Context, maxDepth int, maxThinking time.Duration) (*negamax.Result, error) {
	if maxDepth <= 0 {
		maxDepth = e.settings.MaxDepth
	}
	if maxThinking <= 0 {
		maxThinking = e.settings.MaxThinking
	}
	return e.solver.BestMoves(ctx, maxDepth, maxThinking)
}

// PlayBestMove searches with the configured limits and plays the top move.
func (e *Engine) PlayBestMove(ctx context.Context) (*negamax.Result, error) {
	if e.game.IsTerminal() {
		return nil, ErrGameOver
	}
	res, err := e.BestMoves(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	best, ok := res.Best()
	if !ok {
		return nil, ErrGameOver
	}
	if err := e.game.PlayMove(best.Column); err != nil {
		return nil, err
	}
	log.Debug().Int("col", best.Column).Int32("score", best.Score).
		Int("depth", res.Depth).Msg("engine-played")
	return res, nil
}

// AsyncResult is delivered by BestMovesAsync.
type AsyncResult struct {
	Result *negamax.Result
	Err    error
}

// BestMovesAsync searches a snapshot of the current position for the player
// on turn, in the background. The engine's own game can keep changing while
// it runs. The channel receives exactly one value and is then closed.
func (e *Engine) BestMovesAsync(ctx context.Context, maxDepth int, maxThinking time.Duration) <-chan AsyncResult {
	if maxDepth <= 0 {
		maxDepth = e.settings.MaxDepth
	}
	if maxThinking <= 0 {
		maxThinking = e.settings.MaxThinking
	}
	snapshot := e.game.Copy()
	st := e.liveSettings()
	st.EnginePlayer = snapshot.PlayerOnTurn()
	out := make(chan AsyncResult, 1)

	var eg errgroup.Group
	eg.Go(func() error {
		s, err := newSolver(snapshot, st)
		if err != nil {
			return err
		}
		res, err := s.BestMoves(ctx, maxDepth, maxThinking)
		out <- AsyncResult{Result: res, Err: err}
		return nil
	})
	go func() {
		if err := eg.Wait(); err != nil {
			out <- AsyncResult{Err: err}
		}
		close(out)
	}()
	return out
}

// liveSettings is e.settings with the search options read back from the
// solver, which callers may have changed through Solver().
func (e *Engine) liveSettings() Settings {
	st := e.settings
	st.Evaluator = e.solver.Evaluator().Name()
	st.TTable = e.solver.TranspositionTableOptim()
	st.TTableMemFraction = e.solver.TranspositionTableFraction()
	st.ShallowSolutions = e.solver.ShallowSolutionOptim()
	return st
}

func (e *Engine) Position() string        { return e.game.ToPositionString() }
func (e *Engine) ToDisplayText() string   { return e.game.ToDisplayText() }
func (e *Engine) History() []int          { return e.game.History() }
func (e *Engine) EnginePlayer() int       { return e.settings.EnginePlayer }
func (e *Engine) PlayerOnTurn() int       { return e.game.PlayerOnTurn() }
func (e *Engine) Game() *game.Game        { return e.game }
func (e *Engine) Solver() *negamax.Solver { return e.solver }
func (e *Engine) Settings() Settings      { return e.settings }
func (e *Engine) EngineToMove() bool      { return e.game.PlayerOnTurn() == e.settings.EnginePlayer }

// LoadPosition replaces the game with a position string. Its first player
// becomes the default for Init, as if the game had been started there.
func (e *Engine) LoadPosition(s string) error {
	if err := e.game.LoadPosition(s); err != nil {
		return err
	}
	e.settings.FirstPlayer = e.game.FirstPlayer()
	return nil
}

// SetEnginePlayer changes which side the engine plays.
func (e *Engine) SetEnginePlayer(p int) error {
	if p < 0 || p >= game.NumPlayers {
		return game.ErrBadPlayer
	}
	e.settings.EnginePlayer = p
	e.solver.SetSolvingPlayer(p)
	return nil
}

// SetMaxDepth and SetMaxThinking change the defaults used when BestMoves is
// called without explicit limits.
func (e *Engine) SetMaxDepth(d int) error {
	if d < 1 {
		return negamax.ErrInvalidDepth
	}
	e.settings.MaxDepth = d
	return nil
}

func (e *Engine) SetMaxThinking(d time.Duration) {
	e.settings.MaxThinking = d
}

// SetEvaluator swaps the static evaluator by name.
func (e *Engine) SetEvaluator(name string) error {
	ev, err := equity.NewEvaluator(name)
	if err != nil {
		return err
	}
	e.settings.Evaluator = name
	e.solver.SetEvaluator(ev)
	return nil
}

func (e *Engine) SetTranspositionTable(tt bool) {
	e.settings.TTable = tt
	e.solver.SetTranspositionTableOptim(tt)
}

func (e *Engine) SetShallowSolutions(sh bool) {
	e.settings.ShallowSolutions = sh
	e.solver.SetShallowSolutionOptim(sh)
}
