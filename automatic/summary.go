package automatic

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"gopkg.in/yaml.v3"

	"github.com/domino14/quatro/stats"
)

const confidence = 95

// Summary aggregates a batch of self-play games. The exported fields are
// what gets written out as YAML.
type Summary struct {
	Games           int               `yaml:"games"`
	Players         [2]PlayerSettings `yaml:"players"`
	Outcomes        stats.Outcomes    `yaml:"outcomes"`
	FirstPlayerWins int               `yaml:"first_player_wins"`
	Score0          float64           `yaml:"score_player0"`
	Score0Low       float64           `yaml:"score_player0_low"`
	Score0High      float64           `yaml:"score_player0_high"`
	MeanPlies       float64           `yaml:"mean_plies"`
	MeanNodes       float64           `yaml:"mean_nodes_per_game"`
	MeanSeconds     float64           `yaml:"mean_seconds_per_game"`

	plies   stats.Statistic
	nodes   stats.Statistic
	seconds stats.Statistic
	lengths []float64
}

func NewSummary(players [2]PlayerSettings) *Summary {
	return &Summary{Players: players}
}

// Add folds one finished game into the summary.
func (s *Summary) Add(rec *GameRecord) {
	s.Games++
	s.Outcomes.Add(rec.Winner)
	if rec.Winner == rec.FirstPlayer {
		s.FirstPlayerWins++
	}
	s.plies.Push(float64(rec.Plies))
	s.nodes.Push(float64(rec.Nodes))
	s.seconds.Push(rec.Duration.Seconds())
	s.lengths = append(s.lengths, float64(rec.Plies))
}

// Finish computes the derived fields.
func (s *Summary) Finish() {
	s.Score0 = s.Outcomes.Score(0)
	s.Score0Low, s.Score0High = s.Outcomes.Interval(0, confidence)
	s.MeanPlies = s.plies.Mean()
	s.MeanNodes = s.nodes.Mean()
	s.MeanSeconds = s.seconds.Mean()
}

func (s *Summary) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// WriteText writes a human-readable report, with a histogram of game
// lengths.
func (s *Summary) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Games: %d\n", s.Games)
	fmt.Fprintf(w, "Player 0 (%s) wins: %d\n", s.Players[0], s.Outcomes.Wins[0])
	fmt.Fprintf(w, "Player 1 (%s) wins: %d\n", s.Players[1], s.Outcomes.Wins[1])
	fmt.Fprintf(w, "Draws: %d\n", s.Outcomes.Draws)
	fmt.Fprintf(w, "First player won %d games\n", s.FirstPlayerWins)
	fmt.Fprintf(w, "Player 0 score: %.3f (%d%% interval %.3f - %.3f)\n",
		s.Score0, confidence, s.Score0Low, s.Score0High)
	fmt.Fprintf(w, "Plies per game: %s\n", s.plies.String())
	fmt.Fprintf(w, "Nodes per game: %.0f (stdev %.0f)\n", s.nodes.Mean(), s.nodes.Stdev())
	fmt.Fprintf(w, "Seconds per game: %.3f\n", s.seconds.Mean())
	if len(s.lengths) < 2 || s.plies.Min() == s.plies.Max() {
		return nil
	}
	fmt.Fprintln(w, "Game length histogram (plies):")
	return histogram.Fprint(w, histogram.Hist(10, s.lengths), histogram.Linear(40))
}
