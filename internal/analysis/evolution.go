package analysis

import (
	"sort"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/stats"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

// TransitionSummary tallies how attendees moved between their status at the
// first webinar and their current status. Rates use the valid (non-unknown)
// transitions as denominator and are nil when there are none.
type TransitionSummary struct {
	TotalAnalyzed    int      `json:"total_analyzed"`
	ValidTransitions int      `json:"valid_transitions"`
	UpgradeCount     int      `json:"upgrade_count"`
	DowngradeCount   int      `json:"downgrade_count"`
	MaintainedCount  int      `json:"maintained_count"`
	UnknownCount     int      `json:"unknown_count"`
	UpgradeRate      *float64 `json:"upgrade_rate,omitempty"`
	DowngradeRate    *float64 `json:"downgrade_rate,omitempty"`
	MaintainedRate   *float64 `json:"maintained_rate,omitempty"`
	AvgMagnitude     *float64 `json:"avg_magnitude,omitempty"`
}

// TransitionMatrix is a row-normalized percentage cross-tab of status at
// webinar (rows) by current status (columns), always 7x7.
type TransitionMatrix struct {
	Labels []string    `json:"labels"`
	Rows   [][]float64 `json:"rows"`
}

// InitialStatusBreakdown holds transition rates for one starting status.
type InitialStatusBreakdown struct {
	InitialStatus  string  `json:"initial_status"`
	Total          int     `json:"total"`
	UpgradeRate    float64 `json:"upgrade_rate"`
	DowngradeRate  float64 `json:"downgrade_rate"`
	MaintainedRate float64 `json:"maintained_rate"`
}

// StatusCount is the number of stores currently at a status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// EvolutionResult is the outcome of the status evolution hypothesis (H3).
type EvolutionResult struct {
	Transitions              *TransitionSummary       `json:"transitions,omitempty"`
	Matrix                   TransitionMatrix         `json:"matrix"`
	ByInitialStatus          []InitialStatusBreakdown `json:"by_initial_status"`
	ParticipantsDistribution []StatusCount            `json:"participants_distribution"`
	ControlDistribution      []StatusCount            `json:"control_distribution"`
	DistributionChiSquare    *stats.TestResult        `json:"distribution_chi_square,omitempty"`
}

type transition struct {
	before, after string
	change        status.Change
	magnitude     int
}

// AnalyzeStatusEvolution classifies every attendee's status movement and
// compares the current-status distributions of both cohorts.
func AnalyzeStatusEvolution(participants []cohort.Participant, control []cohort.StoreRecord) EvolutionResult {
	transitions := collectTransitions(participants)

	result := EvolutionResult{
		Transitions:     summarizeTransitions(transitions),
		Matrix:          transitionMatrix(transitions),
		ByInitialStatus: byInitialStatus(transitions),
	}

	pCounts := make([]int, len(status.Canonical))
	for _, p := range participants {
		if r := status.Rank(p.CurrentStatus); r >= 0 {
			pCounts[r]++
		}
	}
	cCounts := make([]int, len(status.Canonical))
	for _, c := range control {
		if r := status.Rank(c.CurrentStatus); r >= 0 {
			cCounts[r]++
		}
	}
	result.ParticipantsDistribution = distribution(pCounts)
	result.ControlDistribution = distribution(cCounts)

	// Only categories observed in at least one cohort enter the test.
	var pRow, cRow []float64
	for i := range status.Canonical {
		if pCounts[i] > 0 || cCounts[i] > 0 {
			pRow = append(pRow, float64(pCounts[i]))
			cRow = append(cRow, float64(cCounts[i]))
		}
	}
	if len(pRow) >= 2 {
		chi := stats.ChiSquareContingency([][]float64{pRow, cRow})
		result.DistributionChiSquare = &chi
	}

	return result
}

// collectTransitions keeps attendees with both a starting and a current
// status and classifies each pair.
func collectTransitions(participants []cohort.Participant) []transition {
	var out []transition
	for _, p := range participants {
		before := status.Normalize(p.StatusAtWebinar)
		after := status.Normalize(p.CurrentStatus)
		if before == "" || after == "" {
			continue
		}
		change, magnitude := status.Classify(before, after)
		out = append(out, transition{before: before, after: after, change: change, magnitude: magnitude})
	}
	return out
}

func summarizeTransitions(transitions []transition) *TransitionSummary {
	if len(transitions) == 0 {
		return nil
	}

	s := &TransitionSummary{TotalAnalyzed: len(transitions)}
	var magnitude int
	for _, t := range transitions {
		switch t.change {
		case status.Upgrade:
			s.UpgradeCount++
		case status.Downgrade:
			s.DowngradeCount++
		case status.Maintained:
			s.MaintainedCount++
		default:
			s.UnknownCount++
			continue
		}
		s.ValidTransitions++
		magnitude += t.magnitude
	}

	if s.ValidTransitions > 0 {
		up := rate(s.UpgradeCount, s.ValidTransitions)
		down := rate(s.DowngradeCount, s.ValidTransitions)
		kept := rate(s.MaintainedCount, s.ValidTransitions)
		avg := float64(magnitude) / float64(s.ValidTransitions)
		s.UpgradeRate, s.DowngradeRate, s.MaintainedRate = &up, &down, &kept
		s.AvgMagnitude = &avg
	}
	return s
}

func transitionMatrix(transitions []transition) TransitionMatrix {
	n := len(status.Canonical)
	counts := make([][]int, n)
	for i := range counts {
		counts[i] = make([]int, n)
	}
	for _, t := range transitions {
		if t.change == status.Unknown {
			continue
		}
		counts[status.Rank(t.before)][status.Rank(t.after)]++
	}

	m := TransitionMatrix{
		Labels: append([]string(nil), status.Canonical...),
		Rows:   make([][]float64, n),
	}
	for i, row := range counts {
		var total int
		for _, c := range row {
			total += c
		}
		m.Rows[i] = make([]float64, n)
		for j, c := range row {
			m.Rows[i][j] = rate(c, total)
		}
	}
	return m
}

func byInitialStatus(transitions []transition) []InitialStatusBreakdown {
	type tally struct {
		total, valid, up, down, kept int
	}
	groups := make(map[string]*tally)
	for _, t := range transitions {
		g, ok := groups[t.before]
		if !ok {
			g = &tally{}
			groups[t.before] = g
		}
		g.total++
		switch t.change {
		case status.Upgrade:
			g.up++
		case status.Downgrade:
			g.down++
		case status.Maintained:
			g.kept++
		default:
			continue
		}
		g.valid++
	}

	var out []InitialStatusBreakdown
	for s, g := range groups {
		if g.valid == 0 {
			continue
		}
		out = append(out, InitialStatusBreakdown{
			InitialStatus:  s,
			Total:          g.total,
			UpgradeRate:    rate(g.up, g.valid),
			DowngradeRate:  rate(g.down, g.valid),
			MaintainedRate: rate(g.kept, g.valid),
		})
	}
	sort.Slice(out, func(i, j int) bool { return statusLess(out[i].InitialStatus, out[j].InitialStatus) })
	return out
}

func distribution(counts []int) []StatusCount {
	out := make([]StatusCount, len(status.Canonical))
	for i, s := range status.Canonical {
		out[i] = StatusCount{Status: s, Count: counts[i]}
	}
	return out
}
