package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	errRaggedTable   = errors.New("contingency table rows have different lengths")
	errZeroExpected  = errors.New("the table of expected frequencies has a zero element")
	errTableTooSmall = errors.New("contingency table needs at least 2 rows and 2 columns")
)

// ChiSquareContingency runs a chi-square test of independence on an
// observed-frequency table. 2x2 tables (one degree of freedom) get the
// Yates continuity correction. A table with a zero marginal cannot be
// tested and is reported through the result's Error field.
func ChiSquareContingency(table [][]float64) TestResult {
	if len(table) < 2 || len(table[0]) < 2 {
		return Failed(TestChiSquare, errTableTooSmall)
	}

	cols := len(table[0])
	rowSums := make([]float64, len(table))
	colSums := make([]float64, cols)
	var total float64
	for i, row := range table {
		if len(row) != cols {
			return Failed(TestChiSquare, errRaggedTable)
		}
		for j, v := range row {
			rowSums[i] += v
			colSums[j] += v
			total += v
		}
	}
	if total == 0 {
		return Failed(TestChiSquare, errZeroExpected)
	}

	dof := float64((len(table) - 1) * (cols - 1))

	var chi2 float64
	for i, row := range table {
		for j, observed := range row {
			expected := rowSums[i] * colSums[j] / total
			if expected == 0 {
				return Failed(TestChiSquare, errZeroExpected)
			}

			diff := observed - expected
			if dof == 1 {
				diff = math.Copysign(math.Max(math.Abs(diff)-0.5, 0), diff)
			}
			chi2 += diff * diff / expected
		}
	}

	p := distuv.ChiSquared{K: dof}.Survival(chi2)

	result := newResult(TestChiSquare, chi2, p)
	result.DegreesOfFreedom = &dof
	result.Table = table
	return result
}
