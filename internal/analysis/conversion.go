package analysis

import (
	"math"
	"sort"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/stats"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

// confidence is the level of the Wilson intervals attached to rates.
const confidence = 0.95

// ParticipantConversion describes conversion to first sale among attendees.
type ParticipantConversion struct {
	Total           int     `json:"total"`
	NoSellerAtStart int     `json:"no_seller_at_start"`
	Converted       int     `json:"converted"`
	ConversionRate  float64 `json:"conversion_rate"`
	CILower         float64 `json:"ci_lower"`
	CIUpper         float64 `json:"ci_upper"`
}

// ControlConversion is the cross-sectional seller rate of non-attendees.
// It is a proxy: control stores have no "before" snapshot, so any store
// currently selling counts as converted.
type ControlConversion struct {
	Total      int     `json:"total"`
	Sellers    int     `json:"sellers"`
	SellerRate float64 `json:"seller_rate"`
	CILower    float64 `json:"ci_lower"`
	CIUpper    float64 `json:"ci_upper"`
}

// GroupConversion is one row of a conversion breakdown.
type GroupConversion struct {
	Key            string  `json:"key"`
	Total          int     `json:"total"`
	Converted      int     `json:"converted"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ConversionResult is the outcome of the first-sale hypothesis (H1).
type ConversionResult struct {
	Participants ParticipantConversion `json:"participants"`
	Control      ControlConversion     `json:"control"`
	ChiSquare    stats.TestResult      `json:"chi_square"`
	Lift         *float64              `json:"lift"`
	ByMonth      []GroupConversion     `json:"by_month,omitempty"`
	ByAge        []GroupConversion     `json:"by_age,omitempty"`
}

// AnalyzeConversion compares conversion to first sale between attendees
// and the control seller-rate proxy.
func AnalyzeConversion(participants []cohort.Participant, control []cohort.StoreRecord) ConversionResult {
	var result ConversionResult

	p := &result.Participants
	p.Total = len(participants)
	for _, r := range participants {
		if !status.IsSeller(r.StatusAtWebinar) {
			p.NoSellerAtStart++
		}
		if r.HadFirstSaleAfter {
			p.Converted++
		}
	}
	p.ConversionRate = rate(p.Converted, p.Total)
	p.CILower, p.CIUpper = percentInterval(p.Converted, p.Total)

	c := &result.Control
	c.Total = len(control)
	for _, r := range control {
		if status.IsSeller(r.CurrentStatus) {
			c.Sellers++
		}
	}
	c.SellerRate = rate(c.Sellers, c.Total)
	c.CILower, c.CIUpper = percentInterval(c.Sellers, c.Total)

	a := float64(p.Converted)
	b := float64(p.Total - p.Converted)
	cc := float64(c.Sellers)
	d := float64(c.Total - c.Sellers)
	if a+b > 0 && cc+d > 0 && a+cc > 0 && b+d > 0 {
		result.ChiSquare = stats.ChiSquareContingency([][]float64{{a, b}, {cc, d}})
	} else {
		result.ChiSquare = stats.Insufficient(stats.TestChiSquare, "insufficient data for chi-square test")
	}

	if c.SellerRate > 0 {
		lift := (p.ConversionRate - c.SellerRate) / c.SellerRate * 100
		result.Lift = &lift
	}

	result.ByMonth = conversionBy(participants, func(r cohort.Participant) string {
		return r.FirstWebinarMonth
	}, func(a, b string) bool { return a < b })
	result.ByAge = conversionBy(participants, func(r cohort.Participant) string {
		return string(r.AgeCategory)
	}, ageLess)

	return result
}

// conversionBy groups participants by key, dropping empty keys.
func conversionBy(participants []cohort.Participant, key func(cohort.Participant) string, less func(a, b string) bool) []GroupConversion {
	index := make(map[string]int)
	var groups []GroupConversion
	for _, r := range participants {
		k := key(r)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, GroupConversion{Key: k})
		}
		groups[i].Total++
		if r.HadFirstSaleAfter {
			groups[i].Converted++
		}
	}

	for i := range groups {
		groups[i].ConversionRate = round2(rate(groups[i].Converted, groups[i].Total))
	}

	sort.Slice(groups, func(i, j int) bool { return less(groups[i].Key, groups[j].Key) })
	return groups
}

// rate returns part/total as a percentage, 0 for an empty group.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func percentInterval(successes, trials int) (float64, float64) {
	lo, hi := stats.WilsonInterval(successes, trials, confidence)
	return lo * 100, hi * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
