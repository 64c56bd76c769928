package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WilsonInterval calculates the Wilson score confidence interval
// for a binomial proportion. It's more accurate for small samples
// than the normal approximation.
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials == 0 {
		return 0, 0
	}

	z := ZScore(confidence)
	p := float64(successes) / float64(trials)
	n := float64(trials)

	denominator := 1 + z*z/n
	center := (p + z*z/(2*n)) / denominator
	spread := (z / denominator) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	lower = math.Max(center-spread, 0)
	upper = math.Min(center+spread, 1)
	return lower, upper
}

// ZScore returns the two-sided critical value for a confidence level,
// e.g. 0.95 -> 1.96.
func ZScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile((1 + confidence) / 2)
}
