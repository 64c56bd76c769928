package analysis

import (
	"math"
	"sort"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/stats"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

// minSegmentSize is the smallest cohort slice a segment comparison runs on.
const minSegmentSize = 5

// GroupGMV is one row of a per-status or per-age GMV table.
type GroupGMV struct {
	Key       string  `json:"key"`
	MeanGMV   float64 `json:"mean_gmv"`
	MedianGMV float64 `json:"median_gmv"`
	Count     int     `json:"count"`
}

// GMVResult is the outcome of the GMV hypothesis (H2).
type GMVResult struct {
	Horizon              cohort.Horizon   `json:"horizon"`
	Participants         stats.Summary    `json:"participants"`
	Control              stats.Summary    `json:"control"`
	TTest                stats.TestResult `json:"ttest"`
	MannWhitney          stats.TestResult `json:"mannwhitney"`
	MeanDiffPct          *float64         `json:"mean_diff_pct"`
	ParticipantsByStatus []GroupGMV       `json:"participants_by_status"`
	ControlByStatus      []GroupGMV       `json:"control_by_status"`
	ParticipantsByAge    []GroupGMV       `json:"participants_by_age"`
	ControlByAge         []GroupGMV       `json:"control_by_age"`
}

// SegmentResult compares GMV within one value of a stratifying column.
type SegmentResult struct {
	Segment      string           `json:"segment"`
	Participants stats.Summary    `json:"participants"`
	Control      stats.Summary    `json:"control"`
	TTest        stats.TestResult `json:"ttest"`
	MeanDiffPct  *float64         `json:"mean_diff_pct"`
}

// AnalyzeGMV compares the GMV of both cohorts over the given horizon.
func AnalyzeGMV(participants []cohort.Participant, control []cohort.StoreRecord, horizon cohort.Horizon) GMVResult {
	pv := participantValues(participants, horizon)
	cv := storeValues(control, horizon)

	result := GMVResult{
		Horizon:      horizon,
		Participants: stats.Describe(pv),
		Control:      stats.Describe(cv),
		TTest:        stats.WelchTTest(pv, cv),
		MannWhitney:  stats.MannWhitneyU(pv, cv),
	}
	result.MeanDiffPct = meanDiffPct(result.Participants, result.Control)

	result.ParticipantsByStatus = gmvBy(len(participants), func(i int) (string, *float64) {
		return participants[i].StatusAtWebinar, participants[i].GMV(horizon)
	}, statusLess)
	result.ControlByStatus = gmvBy(len(control), func(i int) (string, *float64) {
		return status.Normalize(control[i].CurrentStatus), control[i].GMV(horizon)
	}, statusLess)
	result.ParticipantsByAge = gmvBy(len(participants), func(i int) (string, *float64) {
		return string(participants[i].AgeCategory), participants[i].GMV(horizon)
	}, ageLess)
	result.ControlByAge = gmvBy(len(control), func(i int) (string, *float64) {
		return string(control[i].AgeCategory), control[i].GMV(horizon)
	}, ageLess)

	return result
}

// AnalyzeGMVBySegment repeats the comparison inside each non-empty value of
// the segment column. Segments where either cohort has fewer than five
// records are skipped. No multiple-comparison correction is applied.
func AnalyzeGMVBySegment(participants []cohort.Participant, control []cohort.StoreRecord, segment cohort.Segment, horizon cohort.Horizon) []SegmentResult {
	pBy := make(map[string][]cohort.StoreRecord)
	cBy := make(map[string][]cohort.StoreRecord)
	keys := make(map[string]struct{})

	for _, p := range participants {
		if k := segmentKey(p.StoreRecord, segment); k != "" {
			pBy[k] = append(pBy[k], p.StoreRecord)
			keys[k] = struct{}{}
		}
	}
	for _, c := range control {
		if k := segmentKey(c, segment); k != "" {
			cBy[k] = append(cBy[k], c)
			keys[k] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	less := statusLess
	if segment == cohort.SegmentAgeCategory {
		less = ageLess
	}
	sort.Slice(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	var results []SegmentResult
	for _, k := range ordered {
		ps, cs := pBy[k], cBy[k]
		if len(ps) < minSegmentSize || len(cs) < minSegmentSize {
			continue
		}

		pv := storeValues(ps, horizon)
		cv := storeValues(cs, horizon)
		r := SegmentResult{
			Segment:      k,
			Participants: stats.Describe(pv),
			Control:      stats.Describe(cv),
			TTest:        stats.WelchTTest(pv, cv),
		}
		r.MeanDiffPct = meanDiffPct(r.Participants, r.Control)
		results = append(results, r)
	}
	return results
}

func segmentKey(s cohort.StoreRecord, segment cohort.Segment) string {
	v := s.SegmentValue(segment)
	if segment == cohort.SegmentCurrentStatus {
		return status.Normalize(v)
	}
	return v
}

func meanDiffPct(p, c stats.Summary) *float64 {
	if c.Mean == 0 {
		return nil
	}
	diff := (p.Mean - c.Mean) / c.Mean * 100
	return &diff
}

// gmvBy groups n records by key and summarizes the non-nil values of each
// group. Empty keys form their own group, as attendees without a status are
// still a meaningful slice.
func gmvBy(n int, row func(i int) (string, *float64), less func(a, b string) bool) []GroupGMV {
	index := make(map[string]int)
	var keys []string
	var values [][]float64
	for i := 0; i < n; i++ {
		k, v := row(i)
		j, ok := index[k]
		if !ok {
			j = len(keys)
			index[k] = j
			keys = append(keys, k)
			values = append(values, nil)
		}
		if v != nil && !math.IsNaN(*v) {
			values[j] = append(values[j], *v)
		}
	}

	groups := make([]GroupGMV, len(keys))
	for i, k := range keys {
		s := stats.Describe(values[i])
		groups[i] = GroupGMV{Key: k, MeanGMV: s.Mean, MedianGMV: s.Median, Count: s.Count}
	}
	sort.Slice(groups, func(i, j int) bool { return less(groups[i].Key, groups[j].Key) })
	return groups
}

func participantValues(participants []cohort.Participant, h cohort.Horizon) []float64 {
	out := make([]float64, 0, len(participants))
	for _, p := range participants {
		if v := p.GMV(h); v != nil && !math.IsNaN(*v) {
			out = append(out, *v)
		}
	}
	return out
}

func storeValues(stores []cohort.StoreRecord, h cohort.Horizon) []float64 {
	out := make([]float64, 0, len(stores))
	for _, s := range stores {
		if v := s.GMV(h); v != nil && !math.IsNaN(*v) {
			out = append(out, *v)
		}
	}
	return out
}

// statusLess orders by rank, with unrecognized labels last in lexical order.
func statusLess(a, b string) bool {
	ra, rb := status.Rank(a), status.Rank(b)
	if ra < 0 {
		ra = len(status.Canonical)
	}
	if rb < 0 {
		rb = len(status.Canonical)
	}
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func ageLess(a, b string) bool {
	oa, ob := cohort.AgeOrder(a), cohort.AgeOrder(b)
	if oa != ob {
		return oa < ob
	}
	return a < b
}
