package cohort_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

func TestCategorizeAge(t *testing.T) {
	tests := []struct {
		days *float64
		want cohort.AgeCategory
	}{
		{nil, cohort.AgeUnknown},
		{cohort.Float(-1), cohort.AgeUnknown},
		{cohort.Float(math.NaN()), cohort.AgeUnknown},
		{cohort.Float(0), cohort.Age0To3Months},
		{cohort.Float(90), cohort.Age0To3Months},
		{cohort.Float(91), cohort.Age3To6Months},
		{cohort.Float(180), cohort.Age3To6Months},
		{cohort.Float(181), cohort.Age6To12Months},
		{cohort.Float(365), cohort.Age6To12Months},
		{cohort.Float(366), cohort.Age1To2Years},
		{cohort.Float(730), cohort.Age1To2Years},
		{cohort.Float(731), cohort.Age2PlusYears},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cohort.CategorizeAge(tt.days), "days %v", tt.days)
	}
}

func TestFilters(t *testing.T) {
	events := []cohort.WebinarEvent{
		{StoreID: "a", Month: "2025-01", MonthLabel: "Month 01 - January 2025", WebinarName: "Intro"},
		{StoreID: "b", Month: "2025-02", WebinarName: "Ads"},
		{StoreID: "c", Month: "2025-01", WebinarName: "Ads"},
	}

	assert.Len(t, cohort.FilterEventsByMonth(events, "2025-01"), 2)
	assert.Len(t, cohort.FilterEventsByMonth(events, "Month 01 - January 2025"), 1, "raw label match")
	assert.Len(t, cohort.FilterEventsByMonth(events, ""), 3, "empty filter keeps everything")
	assert.Len(t, cohort.FilterEventsByWebinar(events, "Ads"), 2)

	assert.Equal(t, []string{"2025-01", "2025-02"}, cohort.Months(events))
	names := cohort.WebinarNames(events)
	require.Len(t, names, 2)
	assert.Equal(t, "Ads", names[0])
}

func TestFilterParticipantsByStatus(t *testing.T) {
	ps := []cohort.Participant{
		{StatusAtWebinar: "no-seller"},
		{StatusAtWebinar: "tiny-seller"},
	}

	got := cohort.FilterParticipantsByStatus(ps, " No-Seller")
	require.Len(t, got, 1)

	got[0].StatusAtWebinar = "changed"
	assert.Equal(t, "no-seller", ps[0].StatusAtWebinar, "filter must return a new slice")
}
