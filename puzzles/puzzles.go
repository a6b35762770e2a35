// Package puzzles checks the engine against positions with a known answer.
// Puzzles are kept in YAML files so new regressions can be added without
// touching code.
package puzzles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/quatro/board"
	"github.com/domino14/quatro/equity"
	"github.com/domino14/quatro/game"
	"github.com/domino14/quatro/move"
	"github.com/domino14/quatro/negamax"
)

var ErrNoPuzzles = errors.New("no puzzles found")

// Puzzle is one position plus what the engine must say about it. Every
// expectation is optional; unset ones are not checked.
type Puzzle struct {
	Name     string `yaml:"name"`
	Position string `yaml:"position"`
	Depth    int    `yaml:"depth"`
	// MaxThinkingMs of 0 means no deadline.
	MaxThinkingMs int    `yaml:"max_thinking_ms,omitempty"`
	Evaluator     string `yaml:"evaluator,omitempty"`

	// ExpectTop lists the columns acceptable as the top move.
	ExpectTop []int `yaml:"expect_top,omitempty"`
	// ExpectScore is the exact score of the top move.
	ExpectScore *int32 `yaml:"expect_score,omitempty"`
	// ExpectAll is a score every move must have.
	ExpectAll       *int32 `yaml:"expect_all,omitempty"`
	ExpectCount     *int   `yaml:"expect_count,omitempty"`
	ExpectNonLosing *int   `yaml:"expect_non_losing,omitempty"`
}

type puzzleFile struct {
	Puzzles []Puzzle `yaml:"puzzles"`
}

// Report is the outcome of checking one puzzle.
type Report struct {
	Puzzle   Puzzle
	Result   *negamax.Result
	Failures []string
}

func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Report) String() string {
	var sb strings.Builder
	status := "ok"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(&sb, "%-4s %s (%s)", status, r.Puzzle.Name, r.Puzzle.Position)
	if r.Result != nil {
		fmt.Fprintf(&sb, " depth %d: %s", r.Result.Depth, move.FormatList(r.Result.Moves))
	}
	for _, f := range r.Failures {
		sb.WriteString("\n     " + f)
	}
	return sb.String()
}

// Parse reads puzzles from YAML.
func Parse(data []byte) ([]Puzzle, error) {
	var pf puzzleFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing puzzles: %w", err)
	}
	if len(pf.Puzzles) == 0 {
		return nil, ErrNoPuzzles
	}
	for i := range pf.Puzzles {
		if pf.Puzzles[i].Name == "" {
			pf.Puzzles[i].Name = fmt.Sprintf("puzzle-%d", i+1)
		}
	}
	return pf.Puzzles, nil
}

// Load reads a puzzle file.
func Load(path string) ([]Puzzle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Check searches the puzzle position for the player on turn and compares
// the result against the expectations. An error means the puzzle itself
// is unusable; a wrong answer only shows up in the report.
func Check(ctx context.Context, geom *board.Geometry, p Puzzle) (*Report, error) {
	g, err := game.FromPositionString(geom, p.Position)
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", p.Name, err)
	}
	ev, err := equity.NewEvaluator(p.Evaluator)
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", p.Name, err)
	}
	solver := &negamax.Solver{}
	if err := solver.Init(g, ev); err != nil {
		return nil, err
	}
	res, err := solver.BestMoves(ctx, p.Depth, time.Duration(p.MaxThinkingMs)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", p.Name, err)
	}
	report := &Report{Puzzle: p, Result: res}
	report.Failures = p.verify(res.Moves)
	log.Debug().Str("puzzle", p.Name).Bool("passed", report.Passed()).
		Str("moves", move.FormatList(res.Moves)).Msg("puzzle-checked")
	return report, nil
}

func (p Puzzle) verify(moves []move.ScoredMove) []string {
	var failures []string
	if p.ExpectCount != nil && len(moves) != *p.ExpectCount {
		failures = append(failures, fmt.Sprintf("expected %d moves, got %d", *p.ExpectCount, len(moves)))
	}
	if p.ExpectNonLosing != nil {
		if n := move.NonLosing(moves); n != *p.ExpectNonLosing {
			failures = append(failures, fmt.Sprintf("expected %d non-losing moves, got %d", *p.ExpectNonLosing, n))
		}
	}
	if p.ExpectAll != nil {
		off := lo.Filter(moves, func(m move.ScoredMove, _ int) bool { return m.Score != *p.ExpectAll })
		if len(off) > 0 {
			failures = append(failures, fmt.Sprintf("expected every score to be %d, got %s", *p.ExpectAll, move.FormatList(off)))
		}
	}
	if len(p.ExpectTop) == 0 && p.ExpectScore == nil {
		return failures
	}
	if len(moves) == 0 {
		return append(failures, "expected a top move, got none")
	}
	top := moves[0]
	if len(p.ExpectTop) > 0 && !slices.Contains(p.ExpectTop, top.Column) {
		failures = append(failures, fmt.Sprintf("expected top move in %v, got %d", p.ExpectTop, top.Column))
	}
	if p.ExpectScore != nil && top.Score != *p.ExpectScore {
		failures = append(failures, fmt.Sprintf("expected top score %d, got %d", *p.ExpectScore, top.Score))
	}
	return failures
}

// CheckAll runs every puzzle in order. It stops at the first puzzle that
// cannot be set up or when ctx is done.
func CheckAll(ctx context.Context, geom *board.Geometry, ps []Puzzle) ([]*Report, error) {
	reports := make([]*Report, 0, len(ps))
	for _, p := range ps {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r, err := Check(ctx, geom, p)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
