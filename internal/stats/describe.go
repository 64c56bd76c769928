package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one group.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Sum    float64 `json:"sum"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Describe computes a Summary over values, ignoring NaNs. An empty input
// yields the zero Summary.
func Describe(values []float64) Summary {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return Summary{}
	}
	sort.Float64s(sorted)

	n := float64(len(sorted))
	mean := stat.Mean(sorted, nil)

	// Population standard deviation.
	var std float64
	if len(sorted) > 1 {
		_, variance := stat.MeanVariance(sorted, nil)
		std = math.Sqrt(variance * (n - 1) / n)
	}

	return Summary{
		Count:  len(sorted),
		Mean:   mean,
		Median: Quantile(sorted, 0.5),
		Std:    std,
		Sum:    floats.Sum(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q25:    Quantile(sorted, 0.25),
		Q75:    Quantile(sorted, 0.75),
	}
}

// Quantile returns the q-th quantile of sorted data by linear interpolation
// between closest ranks (position (n-1)*q). sorted must be ascending.
func Quantile(sorted []float64, q float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
