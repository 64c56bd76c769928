package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

func reportFixture() ([]cohort.WebinarEvent, []cohort.StoreRecord) {
	events := []cohort.WebinarEvent{
		{Row: 0, StoreID: "s1", Month: "2025-08", WebinarName: "Launch", StatusAtWebinar: "no-seller"},
		{Row: 1, StoreID: "s2", Month: "2025-08", WebinarName: "Launch", StatusAtWebinar: "tiny-seller"},
		{Row: 2, StoreID: "s3", Month: "2025-09", WebinarName: "Ads", StatusAtWebinar: "no-seller"},
		{Row: 3, StoreID: "s1", Month: "2025-09", WebinarName: "Ads", StatusAtWebinar: "small-seller"},
	}
	roster := []cohort.StoreRecord{
		{StoreID: "s1", GMVD30: cohort.Float(100), GMVD90: cohort.Float(300), CurrentStatus: "small-seller", StoreAgeDays: cohort.Float(40)},
		{StoreID: "s2", GMVD30: cohort.Float(50), GMVD90: cohort.Float(150), CurrentStatus: "tiny-seller", StoreAgeDays: cohort.Float(400)},
		{StoreID: "s3", GMVD30: cohort.Float(0), GMVD90: cohort.Float(0), CurrentStatus: "no-seller", StoreAgeDays: cohort.Float(10)},
		{StoreID: "c1", GMVD30: cohort.Float(20), GMVD90: cohort.Float(60), CurrentStatus: "tiny-seller", StoreAgeDays: cohort.Float(800)},
		{StoreID: "c2", GMVD30: cohort.Float(0), GMVD90: cohort.Float(0), CurrentStatus: "no-seller", StoreAgeDays: cohort.Float(90)},
	}
	return events, roster
}

func TestRun(t *testing.T) {
	events, roster := reportFixture()

	r, err := analysis.Run(context.Background(), events, roster, analysis.Options{})
	require.NoError(t, err)

	assert.Equal(t, cohort.HorizonD30, r.Options.Horizon)
	assert.Equal(t, cohort.SegmentCurrentStatus, r.Options.Segment)
	assert.Equal(t, analysis.Overview{
		Participants: 3,
		Control:      2,
		Webinars:     []string{"Ads", "Launch"},
		Months:       []string{"2025-08", "2025-09"},
	}, r.Overview)

	assert.Equal(t, 3, r.Conversion.Participants.Total)
	assert.Equal(t, 1, r.Conversion.Participants.Converted)
	assert.Equal(t, 2, r.Conversion.Control.Total)
	assert.Equal(t, 3, r.GMV.Participants.Count)
	require.NotNil(t, r.Evolution.Transitions)
	assert.Equal(t, 3, r.Evolution.Transitions.TotalAnalyzed)
	assert.Len(t, r.Flow.Labels, 14)
}

func TestRun_FiltersKeepControl(t *testing.T) {
	events, roster := reportFixture()

	r, err := analysis.Run(context.Background(), events, roster, analysis.Options{Month: "2025-09"})
	require.NoError(t, err)

	ids := make([]string, 0, len(r.Cohorts.Participants))
	for _, p := range r.Cohorts.Participants {
		ids = append(ids, p.StoreID)
	}
	assert.Equal(t, []string{"s1", "s3"}, ids)
	assert.Equal(t, "small-seller", r.Cohorts.Participants[0].StatusAtWebinar, "status is taken from the filtered events")
	assert.Equal(t, 2, r.Overview.Control, "control is built from the unfiltered attendee set")

	r, err = analysis.Run(context.Background(), events, roster, analysis.Options{Webinar: "Launch", InitialStatus: "Tiny-Seller"})
	require.NoError(t, err)
	require.Len(t, r.Cohorts.Participants, 1)
	assert.Equal(t, "s2", r.Cohorts.Participants[0].StoreID)

	r, err = analysis.Run(context.Background(), events, roster, analysis.Options{Webinar: "nope"})
	require.NoError(t, err)
	assert.Empty(t, r.Cohorts.Participants)
	assert.Equal(t, 2, r.Overview.Control)
	assert.False(t, r.GMV.TTest.OK())
}

func TestRun_InvalidOptions(t *testing.T) {
	events, roster := reportFixture()

	_, err := analysis.Run(context.Background(), events, roster, analysis.Options{Horizon: "gmv_d7"})
	assert.Error(t, err)

	_, err = analysis.Run(context.Background(), events, roster, analysis.Options{Segment: "webinar_name"})
	assert.Error(t, err)
}

func TestRun_Canceled(t *testing.T) {
	events, roster := reportFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := analysis.Run(ctx, events, roster, analysis.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	events, roster := reportFixture()

	_, err := analysis.Run(context.Background(), events, roster, analysis.Options{Month: "2025-08"})
	require.NoError(t, err)

	for _, s := range roster {
		assert.Empty(t, s.AgeCategory, "roster rows must not be derived in place")
	}
}
