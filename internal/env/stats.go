package env

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ReturnStats summarises episodic returns collected for one policy.
type ReturnStats struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	NumEpisodes int     `json:"episodes"`
}

// Summarize computes statistics over episode returns. Std is the population
// standard deviation.
func Summarize(returns []float64) ReturnStats {
	n := len(returns)
	if n == 0 {
		return ReturnStats{}
	}

	mean, variance := stat.PopMeanVariance(returns, nil)
	return ReturnStats{
		Mean:        mean,
		Std:         math.Sqrt(variance),
		Min:         floats.Min(returns),
		Max:         floats.Max(returns),
		NumEpisodes: n,
	}
}
