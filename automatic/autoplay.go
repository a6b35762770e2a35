package automatic

// Engine against engine games, run concurrently.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/quatro/board"
)

var (
	GamesCounter *expvar.Int
	IsPlaying    *expvar.Int
)

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

func init() {
	GamesCounter = expvar.NewInt("selfplayGames")
	IsPlaying = expvar.NewInt("selfplayIsPlaying")
}

const logHeader = "gameID,ply,player,col,score,depth,nodes,ms\n"

// GameSaver persists finished games. *GameStore is the sqlite one.
type GameSaver interface {
	Save(ctx context.Context, rec *GameRecord) error
}

// AutoplayOptions configures a batch of self-play games.
type AutoplayOptions struct {
	NumGames    int
	Threads     int
	Players     [2]PlayerSettings
	RandomPlies int
	// Seeds, if given, are used in order, and wrap around. Otherwise every
	// game gets a fresh seed.
	Seeds []Seed
	// LogFile receives one CSV line per move when set.
	LogFile string
	// Store receives every finished game when set.
	Store GameSaver
	// TTableFraction is the memory share of each solver's table.
	TTableFraction float64
}

// PlayGames plays opts.NumGames games, alternating the first player, and
// returns their summary. Cancelling ctx stops handing out new games; games
// already started run to the end. The first failing game stops the batch
// the same way.
func PlayGames(ctx context.Context, geom *board.Geometry, opts AutoplayOptions) (*Summary, error) {
	if IsPlaying.Value() > 0 {
		return nil, ErrAlreadyPlaying
	}
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	threads := opts.Threads
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	threads = min(threads, max(opts.NumGames, 1))
	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = GenerateSeeds(opts.NumGames)
	}
	log.Info().Int("games", opts.NumGames).Int("threads", threads).
		Str("player0", opts.Players[0].String()).Str("player1", opts.Players[1].String()).
		Msg("starting-selfplay")

	var logChan chan string
	logDone := make(chan error, 1)
	if opts.LogFile != "" {
		logfile, err := os.Create(opts.LogFile)
		if err != nil {
			return nil, err
		}
		logChan = make(chan string, 100)
		go func() {
			logDone <- writeLog(logfile, logChan)
		}()
	} else {
		close(logDone)
	}

	type job struct {
		idx  int
		seed Seed
	}
	jobs := make(chan job)
	results := make(chan *GameRecord, threads)
	g, gctx := errgroup.WithContext(ctx)
	workers, wctx := errgroup.WithContext(gctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < opts.NumGames; i++ {
			select {
			case jobs <- job{idx: i, seed: seeds[i%len(seeds)]}:
			case <-wctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				return nil
			}
		}
		return nil
	})

	for t := 0; t < threads; t++ {
		workers.Go(func() error {
			r := NewGameRunner(logChan, geom)
			if opts.TTableFraction > 0 {
				r.SetTranspositionTableFraction(opts.TTableFraction)
			}
			if err := r.Init(opts.Players[0], opts.Players[1], opts.RandomPlies); err != nil {
				return err
			}
			for j := range jobs {
				if wctx.Err() != nil {
					return nil
				}
				// Games in flight finish even if the batch is cancelled.
				rec, err := r.PlayGame(context.WithoutCancel(wctx), j.idx%2, j.seed)
				if err != nil {
					return fmt.Errorf("game %d: %w", j.idx, err)
				}
				if opts.Store != nil {
					if err := opts.Store.Save(context.WithoutCancel(wctx), rec); err != nil {
						return err
					}
				}
				GamesCounter.Add(1)
				results <- rec
			}
			return nil
		})
	}
	g.Go(func() error {
		err := workers.Wait()
		close(results)
		if logChan != nil {
			close(logChan)
		}
		return err
	})

	summary := NewSummary(opts.Players)
	for rec := range results {
		summary.Add(rec)
		if summary.Games%100 == 0 {
			log.Info().Int("games", summary.Games).Msg("selfplay-progress")
		}
	}
	err := g.Wait()
	if lerr := <-logDone; lerr != nil && err == nil {
		err = lerr
	}
	if err != nil {
		return summary, err
	}
	summary.Finish()
	log.Info().Int("games", summary.Games).Int("wins0", summary.Outcomes.Wins[0]).
		Int("wins1", summary.Outcomes.Wins[1]).Int("draws", summary.Outcomes.Draws).
		Msg("selfplay-finished")
	return summary, nil
}

func writeLog(w io.WriteCloser, logChan chan string) error {
	var werr error
	if _, err := io.WriteString(w, logHeader); err != nil {
		werr = err
	}
	for msg := range logChan {
		if werr != nil {
			continue
		}
		if _, err := io.WriteString(w, msg); err != nil {
			werr = err
		}
	}
	if err := w.Close(); err != nil && werr == nil {
		werr = err
	}
	log.Debug().Msg("exiting turn logger goroutine")
	return werr
}
