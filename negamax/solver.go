// Package negamax implements the game-tree search: negamax with alpha-beta
// pruning, iterative deepening over even depths, a shallow-solution
// shortcut and a transposition table for proven results.
package negamax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/quatro/equity"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/move"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

// MaxShallowLevel is the deepest level the shallow-solution pass searches
// before iterative deepening starts.
const MaxShallowLevel = 3

// DefaultTTableFraction is the share of system memory the transposition
// table asks for. Reset clamps the result.
const DefaultTTableFraction = 1.0 / 256

var (
	ErrNotYourTurn  = errors.New("it is not the solving player's turn")
	ErrInvalidDepth = errors.New("maximum depth must be at least 1")
	ErrNoGame       = errors.New("solver has no game")
)

// Result is what BestMoves reports: the ranked root moves of the deepest
// search that ran to completion.
type Result struct {
	// Depth is the depth of the completed search Moves comes from. It is 0
	// when the position was already over.
	Depth int
	// Nodes counts every position visited, across all depths.
	Nodes    uint64
	Duration time.Duration
	// Moves holds every legal column, best first.
	Moves []move.ScoredMove
	PV    PVLine
	// ShortCircuited is set when the shallow pass already settled the game.
	ShortCircuited bool
	// TimedOut is set when the deadline cut a deeper iteration short.
	TimedOut bool
}

// Best returns the top-ranked move. ok is false if there are no moves.
func (r *Result) Best() (m move.ScoredMove, ok bool) {
	if len(r.Moves) == 0 {
		return move.ScoredMove{}, false
	}
	return r.Moves[0], true
}

type Solver struct {
	// game is the caller's game. It is only read; every search runs on pos,
	// a private copy taken at the start of BestMoves.
	game *game.Game
	pos  *game.Game

	evaluator     equity.Evaluator
	solvingPlayer int
	rootMoveCount int

	transpositionTableOptim bool
	shallowSolutionOptim    bool
	ttable                  *TranspositionTable
	ttableFraction          float64

	nodes atomic.Uint64

	logStream io.Writer
}

// Init initializes the solver. The player on turn in g becomes the solving
// player; change it with SetSolvingPlayer. A nil evaluator means the cube
// evaluator.
func (s *Solver) Init(g *game.Game, e equity.Evaluator) error {
	if g == nil {
		return ErrNoGame
	}
	if e == nil {
		e = &equity.CubeEvaluator{}
	}
	s.game = g
	s.evaluator = e
	s.solvingPlayer = g.PlayerOnTurn()
	s.transpositionTableOptim = true
	s.shallowSolutionOptim = true
	s.ttable = &TranspositionTable{}
	s.ttableFraction = DefaultTTableFraction
	return nil
}

// BestMoves ranks every legal move of the solving player. The search
// deepens until maxDepth, a decided outcome, or the maxThinking deadline,
// whichever comes first; a zero maxThinking means no deadline. On timeout
// the result of the deepest completed iteration is returned, never a
// partial one, so the error is nil. A position that is already over
// returns an empty move list.
func (s *Solver) BestMoves(ctx context.Context, maxDepth int, maxThinking time.Duration) (*Result, error) {
	if s.game == nil {
		return nil, ErrNoGame
	}
	if maxDepth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, maxDepth)
	}
	if s.game.PlayerOnTurn() != s.solvingPlayer {
		return nil, ErrNotYourTurn
	}
	tstart := time.Now()
	s.nodes.Store(0)
	if s.game.IsTerminal() {
		return &Result{Moves: []move.ScoredMove{}, Duration: time.Since(tstart)}, nil
	}

	s.pos = s.game.Copy()
	s.rootMoveCount = s.pos.MoveCount()
	if s.transpositionTableOptim {
		s.ttable.Reset(s.ttableFraction)
	}

	searchCtx := ctx
	if maxThinking > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, maxThinking)
		defer cancel()
	}

	g := &errgroup.Group{}
	done := make(chan struct{})
	var res *Result

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		res = s.iterativelyDeepen(searchCtx, maxDepth)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Nodes = s.nodes.Load()
	res.Duration = time.Since(tstart)
	created, lookups, hits, collisions := s.ttable.Stats()
	log.Info().
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Bool("short-circuited", res.ShortCircuited).
		Bool("timed-out", res.TimedOut).
		Uint64("ttable-created", created).
		Uint64("ttable-lookups", lookups).
		Uint64("ttable-hits", hits).
		Uint64("ttable-t2collisions", collisions).
		Float64("time-elapsed-sec", res.Duration.Seconds()).
		Str("moves", move.FormatList(res.Moves)).
		Msg("solve-returning")
	return res, nil
}

// iterativelyDeepen always returns a complete result. The shallow levels
// and the first even depth ignore the deadline so there is something to
// fall back on. A shallow ranking is only returned when it decides the game
// or when no even depth was asked for; otherwise every completed even depth
// replaces it, so the outcome matches a search without the shallow pass.
func (s *Solver) iterativelyDeepen(ctx context.Context, maxDepth int) *Result {
	var best *Result

	if s.shallowSolutionOptim {
		for lev := 1; lev <= min(MaxShallowLevel, maxDepth); lev++ {
			moves, pv, err := s.searchRoot(context.Background(), lev)
			if err != nil {
				// Can't happen without a deadline.
				log.Err(err).Int("level", lev).Msg("shallow-search-failed")
				break
			}
			best = &Result{Depth: lev, Moves: moves, PV: pv}
			if move.Decided(moves) {
				log.Debug().Int("level", lev).Str("moves", move.FormatList(moves)).
					Msg("shallow-solution-found")
				best.ShortCircuited = true
				return best
			}
		}
	}

	deepened := false
	for p := 2; p <= maxDepth; p += 2 {
		log.Debug().Int("plies", p).Msg("deepening-iteratively")
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "- ply: %d\n", p)
		}
		ictx := ctx
		if !deepened {
			ictx = context.Background()
		}
		moves, pv, err := s.searchRoot(ictx, p)
		if err != nil && deepened {
			log.Debug().Err(err).Int("plies", p).Int("completed-depth", best.Depth).
				Msg("search-timeout")
			best.TimedOut = true
			return best
		} else if err != nil {
			log.Err(err).Int("plies", p).Msg("search-failed")
			break
		}
		deepened = true
		best = &Result{Depth: p, Moves: moves, PV: pv}
		log.Debug().Int32("score", pv.score).Int("ply", p).Str("pv", pv.NLBString()).Msg("best-val")
		if move.Decided(moves) {
			break
		}
		if p+2 <= maxDepth && ctx.Err() != nil {
			best.TimedOut = true
			break
		}
	}

	if best == nil {
		// maxDepth is 1 and the shallow pass is off.
		moves, pv, _ := s.searchRoot(context.Background(), 1)
		best = &Result{Depth: 1, Moves: moves, PV: pv}
	}
	return best
}

func (s *Solver) SetSolvingPlayer(p int) {
	s.solvingPlayer = p
}

func (s *Solver) SolvingPlayer() int {
	return s.solvingPlayer
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) TranspositionTableOptim() bool {
	return s.transpositionTableOptim
}

// SetTranspositionTableFraction sets the share of system memory the table
// is sized from on the next search.
func (s *Solver) SetTranspositionTableFraction(f float64) {
	s.ttableFraction = f
}

func (s *Solver) TranspositionTableFraction() float64 {
	return s.ttableFraction
}

func (s *Solver) SetShallowSolutionOptim(sh bool) {
	s.shallowSolutionOptim = sh
}

func (s *Solver) ShallowSolutionOptim() bool {
	return s.shallowSolutionOptim
}

func (s *Solver) SetEvaluator(e equity.Evaluator) {
	s.evaluator = e
}

func (s *Solver) Evaluator() equity.Evaluator {
	return s.evaluator
}

// SetLogStream makes the solver write a YAML log of every root move it
// scores.
func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}

func (s *Solver) Game() *game.Game {
	return s.game
}

// SetGame points the solver at another game. The solving player is not
// changed.
func (s *Solver) SetGame(g *game.Game) {
	s.game = g
}
