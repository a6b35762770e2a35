package stats

// Outcomes tallies finished games between two players.
type Outcomes struct {
	Wins  [2]int `yaml:"wins"`
	Draws int    `yaml:"draws"`
}

// Add records a game; winner is 0, 1, or -1 for a draw.
func (o *Outcomes) Add(winner int) {
	if winner < 0 {
		o.Draws++
		return
	}
	o.Wins[winner]++
}

func (o *Outcomes) Games() int {
	return o.Wins[0] + o.Wins[1] + o.Draws
}

// Score is player p's match score: a win counts 1, a draw one half.
func (o *Outcomes) Score(p int) float64 {
	n := o.Games()
	if n == 0 {
		return 0
	}
	return (float64(o.Wins[p]) + float64(o.Draws)/2) / float64(n)
}

// Interval is the confidence interval around Score(p).
func (o *Outcomes) Interval(p int, confidenceInterval float64) (float64, float64) {
	return ScoreInterval(o.Score(p), o.Games(), confidenceInterval)
}
