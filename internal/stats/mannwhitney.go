package stats

import (
	"math"
	"math/big"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactLimit is the sample size at or below which (for either group) the
// exact null distribution of U is used, provided there are no ties.
const exactLimit = 8

// MannWhitneyU runs the two-sided Mann-Whitney U test. The reported
// statistic is U for the first sample.
func MannWhitneyU(a, b []float64) TestResult {
	if len(a) < 2 || len(b) < 2 {
		r := Insufficient(TestMannWhitney, "insufficient data for Mann-Whitney test: need at least 2 values per group")
		r.ParticipantsN, r.ControlN = len(a), len(b)
		return r
	}

	n1, n2 := len(a), len(b)
	ranks, tieCounts := rankAll(a, b)

	var r1 float64
	for _, r := range ranks[:n1] {
		r1 += r
	}
	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1
	u := math.Max(u1, u2)

	var p float64
	if (n1 <= exactLimit || n2 <= exactLimit) && len(tieCounts) == 0 {
		p = 2 * exactUpperTail(int(math.Round(u)), n1, n2)
	} else {
		p = 2 * asymptoticUpperTail(u, n1, n2, tieCounts)
	}

	result := newResult(TestMannWhitney, u1, p)
	result.ParticipantsN, result.ControlN = n1, n2
	return result
}

// rankAll ranks the pooled sample, averaging ranks across ties. It returns
// the ranks in input order (a first, then b) and the size of every tie group.
func rankAll(a, b []float64) ([]float64, []int) {
	type obs struct {
		v   float64
		idx int
	}

	pooled := make([]obs, 0, len(a)+len(b))
	for _, v := range a {
		pooled = append(pooled, obs{v, len(pooled)})
	}
	for _, v := range b {
		pooled = append(pooled, obs{v, len(pooled)})
	}
	sort.SliceStable(pooled, func(i, j int) bool { return pooled[i].v < pooled[j].v })

	ranks := make([]float64, len(pooled))
	var ties []int
	for i := 0; i < len(pooled); {
		j := i + 1
		for j < len(pooled) && pooled[j].v == pooled[i].v {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[pooled[k].idx] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// asymptoticUpperTail is the normal approximation of P(U >= u) with tie
// and continuity corrections.
func asymptoticUpperTail(u float64, n1, n2 int, ties []int) float64 {
	n := float64(n1 + n2)
	mu := float64(n1*n2) / 2

	var tieTerm float64
	for _, t := range ties {
		ft := float64(t)
		tieTerm += ft*ft*ft - ft
	}
	sigma := math.Sqrt(float64(n1*n2) / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if sigma == 0 {
		// Every value is identical: U sits exactly on the mean.
		return 1
	}

	z := (u - mu - 0.5) / sigma
	return distuv.UnitNormal.Survival(z)
}

// exactUpperTail returns P(U >= u) under the null hypothesis. The counts of
// U are the coefficients of the Gaussian binomial coefficient
// [n1+n2 choose m]_q, built as a product of (1-q^(n+i)) / (1-q^i).
func exactUpperTail(u, n1, n2 int) float64 {
	m, n := n1, n2
	if m > n {
		m, n = n, m
	}

	coef := make([]*big.Int, m*n+m+1)
	for i := range coef {
		coef[i] = new(big.Int)
	}
	coef[0].SetInt64(1)

	deg := 0
	for i := 1; i <= m; i++ {
		k := n + i
		for d := deg + k; d >= k; d-- {
			coef[d].Sub(coef[d], coef[d-k])
		}
		deg += k
		for d := i; d <= deg; d++ {
			coef[d].Add(coef[d], coef[d-i])
		}
		deg -= i
	}

	total := new(big.Int)
	tail := new(big.Int)
	for d := 0; d <= deg; d++ {
		total.Add(total, coef[d])
		if d >= u {
			tail.Add(tail, coef[d])
		}
	}

	p, _ := new(big.Rat).SetFrac(tail, total).Float64()
	return p
}
