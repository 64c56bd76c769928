package stats

import "math"

// Alpha is the significance threshold shared by every test.
const Alpha = 0.05

// Test names used in TestResult.Test.
const (
	TestChiSquare   = "chi_square"
	TestWelchT      = "welch_t"
	TestMannWhitney = "mann_whitney_u"
)

// Significant is the single significance policy: p < Alpha.
func Significant(p float64) bool {
	return p < Alpha
}

// TestResult is the outcome of one hypothesis test. When the test could
// not run, Statistic, PValue and Significant are nil and Error explains why.
type TestResult struct {
	Test             string      `json:"test"`
	Statistic        *float64    `json:"statistic"`
	PValue           *float64    `json:"p_value"`
	DegreesOfFreedom *float64    `json:"degrees_of_freedom,omitempty"`
	Significant      *bool       `json:"significant"`
	Error            string      `json:"error,omitempty"`
	Table            [][]float64 `json:"contingency_table,omitempty"`
	ParticipantsN    int         `json:"participants_n,omitempty"`
	ControlN         int         `json:"control_n,omitempty"`
}

// OK reports whether the test produced a p-value.
func (r TestResult) OK() bool {
	return r.PValue != nil
}

// IsSignificant is a nil-safe read of Significant.
func (r TestResult) IsSignificant() bool {
	return r.Significant != nil && *r.Significant
}

// Insufficient builds the "no result" marker for a failed sample-size
// precondition.
func Insufficient(test, msg string) TestResult {
	return TestResult{Test: test, Error: msg}
}

// Failed captures a numerical failure inside a test.
func Failed(test string, err error) TestResult {
	return TestResult{Test: test, Error: err.Error()}
}

func newResult(test string, statistic, p float64) TestResult {
	p = math.Min(math.Max(p, 0), 1)
	sig := Significant(p)
	return TestResult{
		Test:        test,
		Statistic:   &statistic,
		PValue:      &p,
		Significant: &sig,
	}
}
