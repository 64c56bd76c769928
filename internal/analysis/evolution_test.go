package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

func evolutionFixture() ([]cohort.Participant, []cohort.StoreRecord) {
	participants := []cohort.Participant{
		participant("p1", "no-seller", "small-seller", "", 0, 0),
		participant("p2", "no-seller", "no-seller", "", 0, 0),
		participant("p3", "top-seller", "tiny-seller", "", 0, 0),
		participant("p4", "legacy-tier", "small-seller", "", 0, 0),
		participant("p5", "", "small-seller", "", 0, 0),
	}
	control := []cohort.StoreRecord{
		controlStore("c1", "medium-seller", 0, 0),
		controlStore("c2", "medium-seller", 0, 0),
		controlStore("c3", "no-seller", 0, 0),
		controlStore("c4", "", 0, 0),
	}
	return participants, control
}

func TestAnalyzeStatusEvolution_Transitions(t *testing.T) {
	participants, control := evolutionFixture()

	r := analysis.AnalyzeStatusEvolution(participants, control)

	tr := r.Transitions
	require.NotNil(t, tr)
	assert.Equal(t, 4, tr.TotalAnalyzed, "rows with an empty status are not analyzed")
	assert.Equal(t, 3, tr.ValidTransitions)
	assert.Equal(t, 1, tr.UpgradeCount)
	assert.Equal(t, 1, tr.DowngradeCount)
	assert.Equal(t, 1, tr.MaintainedCount)
	assert.Equal(t, 1, tr.UnknownCount)

	require.NotNil(t, tr.UpgradeRate)
	assert.InDelta(t, 100.0/3, *tr.UpgradeRate, 1e-9)
	assert.InDelta(t, 100.0/3, *tr.DowngradeRate, 1e-9)
	assert.InDelta(t, 100.0/3, *tr.MaintainedRate, 1e-9)
	require.NotNil(t, tr.AvgMagnitude)
	assert.InDelta(t, -1.0/3, *tr.AvgMagnitude, 1e-9)
}

func TestAnalyzeStatusEvolution_Matrix(t *testing.T) {
	participants, control := evolutionFixture()

	m := analysis.AnalyzeStatusEvolution(participants, control).Matrix

	assert.Equal(t, status.Canonical, m.Labels)
	require.Len(t, m.Rows, 7)
	for i, row := range m.Rows {
		require.Len(t, row, 7)
		var sum float64
		for _, v := range row {
			sum += v
		}
		switch status.Canonical[i] {
		case status.NoSeller, status.TopSeller:
			assert.InDelta(t, 100, sum, 0.01, "row %s", status.Canonical[i])
		default:
			assert.Zero(t, sum, "row %s has no transitions", status.Canonical[i])
		}
	}
	assert.Equal(t, 50.0, m.Rows[0][0])
	assert.Equal(t, 50.0, m.Rows[0][3])
	assert.Equal(t, 100.0, m.Rows[6][2])
}

func TestAnalyzeStatusEvolution_ByInitialStatus(t *testing.T) {
	participants, control := evolutionFixture()

	got := analysis.AnalyzeStatusEvolution(participants, control).ByInitialStatus

	require.Len(t, got, 2, "statuses without valid transitions are skipped")
	assert.Equal(t, analysis.InitialStatusBreakdown{
		InitialStatus: "no-seller", Total: 2, UpgradeRate: 50, MaintainedRate: 50,
	}, got[0])
	assert.Equal(t, analysis.InitialStatusBreakdown{
		InitialStatus: "top-seller", Total: 1, DowngradeRate: 100,
	}, got[1])
}

func TestAnalyzeStatusEvolution_Distribution(t *testing.T) {
	participants, control := evolutionFixture()

	r := analysis.AnalyzeStatusEvolution(participants, control)

	require.Len(t, r.ParticipantsDistribution, 7)
	assert.Equal(t, analysis.StatusCount{Status: "small-seller", Count: 3}, r.ParticipantsDistribution[3])
	assert.Equal(t, analysis.StatusCount{Status: "medium-seller", Count: 2}, r.ControlDistribution[4])
	assert.Equal(t, 1, r.ControlDistribution[0].Count)

	require.NotNil(t, r.DistributionChiSquare)
	assert.True(t, r.DistributionChiSquare.OK())
	require.NotNil(t, r.DistributionChiSquare.DegreesOfFreedom)
	assert.Equal(t, 3.0, *r.DistributionChiSquare.DegreesOfFreedom, "four observed categories")
}

func TestAnalyzeStatusEvolution_SingleCategoryOmitsTest(t *testing.T) {
	participants := []cohort.Participant{participant("p1", "no-seller", "small-seller", "", 0, 0)}
	control := []cohort.StoreRecord{controlStore("c1", "small-seller", 0, 0)}

	r := analysis.AnalyzeStatusEvolution(participants, control)
	assert.Nil(t, r.DistributionChiSquare)
}

func TestAnalyzeStatusEvolution_EmptyControlCapturesFailure(t *testing.T) {
	participants := []cohort.Participant{
		participant("p1", "no-seller", "small-seller", "", 0, 0),
		participant("p2", "no-seller", "tiny-seller", "", 0, 0),
	}

	r := analysis.AnalyzeStatusEvolution(participants, nil)

	require.NotNil(t, r.DistributionChiSquare)
	assert.False(t, r.DistributionChiSquare.OK())
	assert.NotEmpty(t, r.DistributionChiSquare.Error)
}

func TestAnalyzeStatusEvolution_NoTransitions(t *testing.T) {
	participants := []cohort.Participant{participant("p1", "", "small-seller", "", 0, 0)}

	r := analysis.AnalyzeStatusEvolution(participants, nil)

	assert.Nil(t, r.Transitions)
	assert.Empty(t, r.ByInitialStatus)
	require.Len(t, r.Matrix.Rows, 7)
	for _, row := range r.Matrix.Rows {
		for _, v := range row {
			assert.Zero(t, v)
		}
	}
}

func TestBuildTransitionFlow(t *testing.T) {
	participants := []cohort.Participant{
		participant("p1", "top-seller", "tiny-seller", "", 0, 0),
		participant("p2", "no-seller", "small-seller", "", 0, 0),
		participant("p3", "no-seller", "small-seller", "", 0, 0),
		participant("p4", "no-seller", "", "", 0, 0),
	}

	flow := analysis.BuildTransitionFlow(participants)

	require.Len(t, flow.Labels, 14)
	assert.Equal(t, "no-seller (before)", flow.Labels[0])
	assert.Equal(t, "top-seller (after)", flow.Labels[13])
	assert.Equal(t, []analysis.FlowEdge{
		{Source: 0, Target: 10, Weight: 2},
		{Source: 6, Target: 9, Weight: 1},
	}, flow.Edges)
}

func TestBuildTransitionFlow_Empty(t *testing.T) {
	flow := analysis.BuildTransitionFlow(nil)

	assert.Len(t, flow.Labels, 14)
	assert.Empty(t, flow.Edges)
}
