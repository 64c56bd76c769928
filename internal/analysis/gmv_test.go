package analysis_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

func TestAnalyzeGMV_MeanDifference(t *testing.T) {
	var participants []cohort.Participant
	for i, v := range []float64{150, 300, 450, 600, 750} {
		participants = append(participants, participant(fmt.Sprintf("p%d", i), "tiny-seller", "small-seller", "2025-08", v, 100))
	}
	var control []cohort.StoreRecord
	for i, v := range []float64{100, 200, 300, 400, 500} {
		control = append(control, controlStore(fmt.Sprintf("c%d", i), "small-seller", v, 100))
	}

	r := analysis.AnalyzeGMV(participants, control, cohort.HorizonD30)

	assert.Equal(t, 450.0, r.Participants.Mean)
	assert.Equal(t, 300.0, r.Control.Mean)
	require.NotNil(t, r.MeanDiffPct)
	assert.InDelta(t, 50.0, *r.MeanDiffPct, 1e-9)

	assert.True(t, r.TTest.OK())
	assert.True(t, r.MannWhitney.OK())
	assert.Equal(t, 5, r.TTest.ParticipantsN)
	assert.Equal(t, 5, r.TTest.ControlN)
}

func TestAnalyzeGMV_Horizon(t *testing.T) {
	participants := []cohort.Participant{participant("p1", "", "", "", 10, 0)}
	control := []cohort.StoreRecord{controlStore("c1", "", 20, 0)}

	r := analysis.AnalyzeGMV(participants, control, cohort.HorizonD90)

	assert.Equal(t, cohort.HorizonD90, r.Horizon)
	assert.Equal(t, 30.0, r.Participants.Mean)
	assert.Equal(t, 60.0, r.Control.Mean)
}

func TestAnalyzeGMV_Insufficient(t *testing.T) {
	participants := []cohort.Participant{participant("p1", "", "no-seller", "", 10, 0)}
	// Unmatched attendee: no GMV at all.
	participants = append(participants, cohort.DeriveParticipant(cohort.Participant{
		StoreRecord: cohort.StoreRecord{StoreID: "ghost"},
	}))
	control := []cohort.StoreRecord{
		controlStore("c1", "", 20, 0),
		controlStore("c2", "", 40, 0),
	}

	r := analysis.AnalyzeGMV(participants, control, cohort.HorizonD30)

	assert.Equal(t, 1, r.Participants.Count, "nil GMV is not counted")
	assert.False(t, r.TTest.OK())
	assert.NotEmpty(t, r.TTest.Error)
	assert.Nil(t, r.TTest.Significant)
	assert.False(t, r.MannWhitney.OK())
	assert.NotEmpty(t, r.MannWhitney.Error)
}

func TestAnalyzeGMV_ZeroControlMean(t *testing.T) {
	participants := []cohort.Participant{
		participant("p1", "", "", "", 10, 0),
		participant("p2", "", "", "", 20, 0),
	}
	control := []cohort.StoreRecord{
		controlStore("c1", "", 0, 0),
		controlStore("c2", "", 0, 0),
	}

	r := analysis.AnalyzeGMV(participants, control, cohort.HorizonD30)
	assert.Nil(t, r.MeanDiffPct)

	empty := analysis.AnalyzeGMV(nil, nil, cohort.HorizonD30)
	assert.Equal(t, 0, empty.Participants.Count)
	assert.Nil(t, empty.MeanDiffPct)
	assert.False(t, empty.TTest.OK())
}

func TestAnalyzeGMV_GroupTables(t *testing.T) {
	participants := []cohort.Participant{
		participant("p1", "small-seller", "small-seller", "", 100, 10),
		participant("p2", "no-seller", "tiny-seller", "", 10, 10),
		participant("p3", "no-seller", "tiny-seller", "", 30, 1000),
		participant("p4", "", "tiny-seller", "", 5, 1000),
	}
	control := []cohort.StoreRecord{
		controlStore("c1", "medium-seller", 400, 200),
		controlStore("c2", "no-seller", 0, 200),
	}

	r := analysis.AnalyzeGMV(participants, control, cohort.HorizonD30)

	require.Len(t, r.ParticipantsByStatus, 3)
	assert.Equal(t, analysis.GroupGMV{Key: "no-seller", MeanGMV: 20, MedianGMV: 20, Count: 2}, r.ParticipantsByStatus[0])
	assert.Equal(t, "small-seller", r.ParticipantsByStatus[1].Key)
	assert.Equal(t, "", r.ParticipantsByStatus[2].Key, "empty status sorts last")

	require.Len(t, r.ControlByStatus, 2)
	assert.Equal(t, "no-seller", r.ControlByStatus[0].Key)
	assert.Equal(t, "medium-seller", r.ControlByStatus[1].Key)

	require.Len(t, r.ParticipantsByAge, 2)
	assert.Equal(t, "0-3mo", r.ParticipantsByAge[0].Key)
	assert.Equal(t, "2+yr", r.ParticipantsByAge[1].Key)
	require.Len(t, r.ControlByAge, 1)
	assert.Equal(t, "6-12mo", r.ControlByAge[0].Key)
}

func TestAnalyzeGMVBySegment_SkipsSmallSegments(t *testing.T) {
	var participants []cohort.Participant
	var control []cohort.StoreRecord
	for i := 0; i < 5; i++ {
		participants = append(participants, participant(fmt.Sprintf("ps%d", i), "tiny-seller", "small-seller", "", float64(100+i*10), 10))
		control = append(control, controlStore(fmt.Sprintf("cs%d", i), "small-seller", float64(50+i*10), 10))
	}
	// Only 4 attendees at tiny-seller: skipped even with a large control side.
	for i := 0; i < 4; i++ {
		participants = append(participants, participant(fmt.Sprintf("pt%d", i), "no-seller", "tiny-seller", "", 10, 10))
	}
	for i := 0; i < 10; i++ {
		control = append(control, controlStore(fmt.Sprintf("ct%d", i), "tiny-seller", 5, 10))
	}
	// Empty status is never a segment.
	for i := 0; i < 6; i++ {
		participants = append(participants, participant(fmt.Sprintf("pe%d", i), "", "", "", 1, 10))
		control = append(control, controlStore(fmt.Sprintf("ce%d", i), "", 1, 10))
	}

	segments := analysis.AnalyzeGMVBySegment(participants, control, cohort.SegmentCurrentStatus, cohort.HorizonD30)

	require.Len(t, segments, 1)
	s := segments[0]
	assert.Equal(t, "small-seller", s.Segment)
	assert.Equal(t, 5, s.Participants.Count)
	assert.Equal(t, 5, s.Control.Count)
	assert.True(t, s.TTest.OK())
	require.NotNil(t, s.MeanDiffPct)
	assert.InDelta(t, (120.0-70.0)/70.0*100, *s.MeanDiffPct, 1e-9)
}

func TestAnalyzeGMVBySegment_AgeOrder(t *testing.T) {
	var participants []cohort.Participant
	var control []cohort.StoreRecord
	for i := 0; i < 5; i++ {
		for _, age := range []float64{1000, 10, 200} {
			participants = append(participants, participant(fmt.Sprintf("p%v-%d", age, i), "", "", "", float64(i), age))
			control = append(control, controlStore(fmt.Sprintf("c%v-%d", age, i), "", float64(i+1), age))
		}
	}

	segments := analysis.AnalyzeGMVBySegment(participants, control, cohort.SegmentAgeCategory, cohort.HorizonD30)

	require.Len(t, segments, 3)
	assert.Equal(t, "0-3mo", segments[0].Segment)
	assert.Equal(t, "6-12mo", segments[1].Segment)
	assert.Equal(t, "2+yr", segments[2].Segment)
}
