package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	zValue := dist.Quantile(area)
	return zValue
}

// ScoreInterval is the normal-approximation interval around a match score
// p (between 0 and 1) measured over n games.
func ScoreInterval(p float64, n int, confidenceInterval float64) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	half := ZVal(confidenceInterval) * math.Sqrt(p*(1-p)/float64(n))
	return math.Max(0, p-half), math.Min(1, p+half)
}
