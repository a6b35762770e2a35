package automatic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

var ErrGameNotFound = errors.New("game not found")

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	seed TEXT NOT NULL,
	first_player INTEGER NOT NULL,
	position TEXT NOT NULL,
	winner INTEGER NOT NULL,
	plies INTEGER NOT NULL,
	nodes INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	players TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS games_winner ON games(winner);
`

// GameStore keeps finished self-play games in a SQLite file.
type GameStore struct {
	db *sql.DB
}

// OpenGameStore opens (creating if needed) the database at path.
func OpenGameStore(ctx context.Context, path string) (*GameStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; concurrent games share the handle.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &GameStore{db: db}, nil
}

func (s *GameStore) Close() error {
	return s.db.Close()
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Save stores rec, replacing any game with the same id. Writes that find
// the database locked are retried with backoff.
func (s *GameStore) Save(ctx context.Context, rec *GameRecord) error {
	players, err := yaml.Marshal(rec.Players)
	if err != nil {
		return err
	}
	return retry.Do(
		func() error {
			_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO games
				(id, seed, first_player, position, winner, plies, nodes, duration_ms, started_at, players)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.Seed.String(), rec.FirstPlayer, rec.Position, rec.Winner,
				rec.Plies, int64(rec.Nodes), rec.Duration.Milliseconds(),
				rec.StartedAt.UTC().Format(time.RFC3339Nano), string(players))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.RetryIf(isBusy),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Debug().Err(err).Uint("n", n).Str("id", rec.ID).Msg("game-store-busy-retrying")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

// Get loads the game with the given id.
func (s *GameStore) Get(ctx context.Context, id string) (*GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, seed, first_player, position, winner,
		plies, nodes, duration_ms, started_at, players FROM games WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return rec, err
}

// Count returns the number of stored games.
func (s *GameStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}

// Tally returns wins per player and draws over every stored game.
func (s *GameStore) Tally(ctx context.Context) (wins [2]int, draws int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT winner, COUNT(*) FROM games GROUP BY winner`)
	if err != nil {
		return wins, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var winner, n int
		if err := rows.Scan(&winner, &n); err != nil {
			return wins, 0, err
		}
		if winner < 0 {
			draws += n
		} else {
			wins[winner] += n
		}
	}
	return wins, draws, rows.Err()
}

func scanRecord(row *sql.Row) (*GameRecord, error) {
	var (
		rec                  GameRecord
		seed, started, plyrs string
		nodes, durMs         int64
	)
	err := row.Scan(&rec.ID, &seed, &rec.FirstPlayer, &rec.Position, &rec.Winner,
		&rec.Plies, &nodes, &durMs, &started, &plyrs)
	if err != nil {
		return nil, err
	}
	if rec.Seed, err = ParseSeed(seed); err != nil {
		return nil, err
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal([]byte(plyrs), &rec.Players); err != nil {
		return nil, err
	}
	rec.Nodes = uint64(nodes)
	rec.Duration = time.Duration(durMs) * time.Millisecond
	return &rec, nil
}
