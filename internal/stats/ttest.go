package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var errZeroVariance = errors.New("both groups have zero variance")

// WelchTTest compares the means of two independent samples without
// assuming equal variances. The p-value is two-sided.
func WelchTTest(a, b []float64) TestResult {
	if len(a) < 2 || len(b) < 2 {
		r := Insufficient(TestWelchT, "insufficient data for t-test: need at least 2 values per group")
		r.ParticipantsN, r.ControlN = len(a), len(b)
		return r
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	seA := varA / na
	seB := varB / nb
	se2 := seA + seB
	if se2 == 0 {
		r := Failed(TestWelchT, errZeroVariance)
		r.ParticipantsN, r.ControlN = len(a), len(b)
		return r
	}

	t := (meanA - meanB) / math.Sqrt(se2)
	df := se2 * se2 / (seA*seA/(na-1) + seB*seB/(nb-1))

	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))

	result := newResult(TestWelchT, t, p)
	result.DegreesOfFreedom = &df
	result.ParticipantsN, result.ControlN = len(a), len(b)
	return result
}
