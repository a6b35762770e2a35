// Package automatic plays engine-against-engine games, for comparing search
// settings and evaluators.
package automatic

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/quatro/board"
	"github.com/domino14/quatro/equity"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/negamax"
)

// PlayerSettings configures the engine for one side.
type PlayerSettings struct {
	MaxDepth    int           `yaml:"max_depth"`
	MaxThinking time.Duration `yaml:"max_thinking"`
	Evaluator   string        `yaml:"evaluator"`
	TTable      bool          `yaml:"ttable"`
}

func (p PlayerSettings) String() string {
	return fmt.Sprintf("%s/d%d/%v", p.Evaluator, p.MaxDepth, p.MaxThinking)
}

// GameRecord is one finished self-play game.
type GameRecord struct {
	ID          string
	Seed        Seed
	FirstPlayer int
	Position    string
	// Winner is 0 or 1, or -1 for a draw.
	Winner    int
	Plies     int
	Nodes     uint64
	Duration  time.Duration
	StartedAt time.Time
	Players   [2]PlayerSettings
}

// GameRunner is the master struct here for the automatic game logic. It
// owns one game and a solver per side, and is reused from game to game.
type GameRunner struct {
	geom        *board.Geometry
	game        *game.Game
	solvers     [2]*negamax.Solver
	players     [2]PlayerSettings
	randomPlies int
	ttFraction  float64

	logchan chan string
	gameID  string
	rng     *frand.RNG
	nodes   uint64
}

// NewGameRunner creates a runner on geom. Per-move CSV lines go to logchan
// when it is not nil.
func NewGameRunner(logchan chan string, geom *board.Geometry) *GameRunner {
	return &GameRunner{logchan: logchan, geom: geom, ttFraction: negamax.DefaultTTableFraction}
}

// Init sets up both players. The first randomPlies plies of every game are
// drawn at random from the game's seed instead of searched.
func (r *GameRunner) Init(p1, p2 PlayerSettings, randomPlies int) error {
	var err error
	r.game, err = game.NewGame(r.geom, 0)
	if err != nil {
		return err
	}
	r.players = [2]PlayerSettings{p1, p2}
	r.randomPlies = randomPlies
	for idx, ps := range r.players {
		if ps.MaxDepth < 1 {
			return fmt.Errorf("player %d: %w", idx, negamax.ErrInvalidDepth)
		}
		ev, err := equity.NewEvaluator(ps.Evaluator)
		if err != nil {
			return fmt.Errorf("player %d: %w", idx, err)
		}
		s := &negamax.Solver{}
		if err := s.Init(r.game, ev); err != nil {
			return err
		}
		s.SetSolvingPlayer(idx)
		s.SetTranspositionTableOptim(ps.TTable)
		s.SetTranspositionTableFraction(r.ttFraction)
		r.solvers[idx] = s
	}
	return nil
}

// SetTranspositionTableFraction must be called before Init. Many runners
// play at once, so each table should stay small.
func (r *GameRunner) SetTranspositionTableFraction(f float64) {
	r.ttFraction = f
}

// GameID derives a stable id from the seed and the first player.
func GameID(seed Seed, firstPlayer int) string {
	return strconv.FormatUint(xxhash.Sum64String(seed.String()+"|"+strconv.Itoa(firstPlayer)), 16)
}

// StartGame resets the board for a new game.
func (r *GameRunner) StartGame(firstPlayer int, seed Seed) error {
	if err := r.game.Init(firstPlayer); err != nil {
		return err
	}
	r.gameID = GameID(seed, firstPlayer)
	r.rng = seed.rng()
	r.nodes = 0
	return nil
}

// playRandomTurn plays a uniformly random legal column.
func (r *GameRunner) playRandomTurn() error {
	moves := r.game.GenerateMoves()
	col := moves[r.rng.Intn(len(moves))]
	r.logTurn(col, 0, 0, 0, 0)
	return r.game.PlayMove(col)
}

// PlayBestTurn searches for the player on turn and plays the top move.
func (r *GameRunner) PlayBestTurn(ctx context.Context) error {
	onturn := r.game.PlayerOnTurn()
	ps := r.players[onturn]
	res, err := r.solvers[onturn].BestMoves(ctx, ps.MaxDepth, ps.MaxThinking)
	if err != nil {
		return err
	}
	best, ok := res.Best()
	if !ok {
		return fmt.Errorf("%w: no moves to play", game.ErrIllegalMove)
	}
	r.nodes += res.Nodes
	r.logTurn(best.Column, best.Score, res.Depth, res.Nodes, res.Duration)
	return r.game.PlayMove(best.Column)
}

func (r *GameRunner) logTurn(col int, score int32, depth int, nodes uint64, dur time.Duration) {
	if r.logchan == nil {
		return
	}
	r.logchan <- fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v,%.3f\n",
		r.gameID,
		r.game.MoveCount()+1,
		r.game.PlayerOnTurn(),
		col,
		score,
		depth,
		nodes,
		float64(dur.Microseconds())/1000)
}

// PlayGame plays one game to the end.
func (r *GameRunner) PlayGame(ctx context.Context, firstPlayer int, seed Seed) (*GameRecord, error) {
	tstart := time.Now()
	if err := r.StartGame(firstPlayer, seed); err != nil {
		return nil, err
	}
	for !r.game.IsTerminal() {
		var err error
		if r.game.MoveCount() < r.randomPlies {
			err = r.playRandomTurn()
		} else {
			err = r.PlayBestTurn(ctx)
		}
		if err != nil {
			return nil, err
		}
	}
	rec := &GameRecord{
		ID:          r.gameID,
		Seed:        seed,
		FirstPlayer: firstPlayer,
		Position:    r.game.ToPositionString(),
		Winner:      r.game.Winner(),
		Plies:       r.game.MoveCount(),
		Nodes:       r.nodes,
		Duration:    time.Since(tstart),
		StartedAt:   tstart,
		Players:     r.players,
	}
	log.Debug().Str("id", rec.ID).Str("position", rec.Position).
		Int("winner", rec.Winner).Msg("game-over")
	return rec, nil
}

func (r *GameRunner) Game() *game.Game {
	return r.game
}
