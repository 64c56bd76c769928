package cohort_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

func store(id string, gmv30, gmv90 float64, st string, age float64) cohort.StoreRecord {
	return cohort.StoreRecord{
		StoreID:       id,
		GMVD30:        cohort.Float(gmv30),
		GMVD90:        cohort.Float(gmv90),
		CurrentStatus: st,
		StoreAgeDays:  cohort.Float(age),
	}
}

func TestSummarizeParticipants(t *testing.T) {
	sellerAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []cohort.WebinarEvent{
		{Row: 0, StoreID: "s2", Month: "2025-09", StatusAtWebinar: "tiny-seller"},
		{Row: 1, StoreID: "s1", Month: "2025-08", StatusAtWebinar: "no-seller"},
		{Row: 2, StoreID: "s2", Month: "2025-07", StatusAtWebinar: "small-seller", FirstSellerAt: &sellerAt},
		{Row: 3, StoreID: "s2", Month: "2025-07", StatusAtWebinar: "medium-seller"},
		{Row: 4, StoreID: "", Month: "2025-07", StatusAtWebinar: "top-seller"},
		{Row: 5, StoreID: "s3", Month: "", StatusAtWebinar: "large-seller"},
		{Row: 6, StoreID: "s3", Month: "2025-10", StatusAtWebinar: " Tiny-Seller "},
	}

	got := cohort.SummarizeParticipants(events)
	require.Len(t, got, 3)

	assert.Equal(t, "s1", got[0].StoreID)
	assert.Equal(t, 1, got[0].WebinarCount)
	assert.Equal(t, "no-seller", got[0].StatusAtWebinar)

	s2 := got[1]
	assert.Equal(t, "s2", s2.StoreID)
	assert.Equal(t, "2025-07", s2.FirstWebinarMonth)
	assert.Equal(t, 3, s2.WebinarCount)
	assert.Equal(t, "small-seller", s2.StatusAtWebinar, "tie on month keeps source order")
	require.NotNil(t, s2.FirstSellerAt)
	assert.True(t, s2.FirstSellerAt.Equal(sellerAt))

	s3 := got[2]
	assert.Equal(t, "2025-10", s3.FirstWebinarMonth)
	assert.Equal(t, "tiny-seller", s3.StatusAtWebinar, "undated events sort last")
}

func TestBuildCohorts_Disjoint(t *testing.T) {
	summaries := []cohort.ParticipantSummary{
		{StoreID: "a", StatusAtWebinar: "no-seller", WebinarCount: 1},
		{StoreID: "b", StatusAtWebinar: "tiny-seller", WebinarCount: 2},
		{StoreID: "ghost", StatusAtWebinar: "", WebinarCount: 1},
	}
	roster := []cohort.StoreRecord{
		store("a", 10, 20, "small-seller", 100),
		store("b", 30, 40, "tiny-seller", 400),
		store("c", 50, 60, "no-seller", 10),
		store("d", 70, 80, "top-seller", 1000),
	}

	participants, control := cohort.BuildCohorts(summaries, roster)
	require.Len(t, participants, 3)
	require.Len(t, control, 2)

	ids := make(map[string]bool)
	for _, p := range participants {
		ids[p.StoreID] = true
	}
	for _, c := range control {
		assert.False(t, ids[c.StoreID], "store %s in both cohorts", c.StoreID)
	}

	assert.True(t, participants[0].InRoster)
	assert.Equal(t, 10.0, *participants[0].GMVD30)

	ghost := participants[2]
	assert.Equal(t, "ghost", ghost.StoreID)
	assert.False(t, ghost.InRoster)
	assert.Nil(t, ghost.GMVD30)
	assert.Nil(t, ghost.StoreAgeDays)
	assert.Equal(t, "", ghost.CurrentStatus)
}

func TestBuildCohorts_DuplicateRosterRows(t *testing.T) {
	summaries := []cohort.ParticipantSummary{{StoreID: "a"}}
	roster := []cohort.StoreRecord{
		store("a", 1, 1, "tiny-seller", 1),
		store("a", 2, 2, "top-seller", 1),
		store("b", 3, 3, "no-seller", 1),
	}

	participants, control := cohort.BuildCohorts(summaries, roster)
	require.Len(t, participants, 1)
	assert.Equal(t, "tiny-seller", participants[0].CurrentStatus)
	require.Len(t, control, 1)
	assert.Equal(t, "b", control[0].StoreID)
}

func TestDeriveParticipant(t *testing.T) {
	p := cohort.Participant{
		StoreRecord:     store("x", 0, 0, "small-seller", 45),
		StatusAtWebinar: "no-seller",
	}

	got := cohort.DeriveParticipant(p)
	assert.True(t, got.HadFirstSaleAfter)
	assert.Equal(t, status.Upgrade, got.StatusChange)
	assert.Equal(t, cohort.Age0To3Months, got.AgeCategory)

	assert.Equal(t, status.Change(""), p.StatusChange, "input must not be mutated")
}

func TestDeriveParticipant_FirstSaleRule(t *testing.T) {
	tests := []struct {
		before, after string
		want          bool
	}{
		{"", "tiny-seller", true},
		{"no-seller", "small-seller", true},
		{"no-seller", "no-seller", false},
		{"", "", false},
		{"tiny-seller", "top-seller", false},
		{"no-seller", "", false},
	}

	for _, tt := range tests {
		p := cohort.Participant{StatusAtWebinar: tt.before}
		p.CurrentStatus = tt.after
		assert.Equal(t, tt.want, cohort.DeriveParticipant(p).HadFirstSaleAfter, "before=%q after=%q", tt.before, tt.after)
	}
}

func TestDeriveParticipant_TopToTiny(t *testing.T) {
	p := cohort.Participant{StatusAtWebinar: "top-seller"}
	p.CurrentStatus = "tiny-seller"
	assert.Equal(t, status.Downgrade, cohort.DeriveParticipant(p).StatusChange)
}

func TestBuild_EndToEnd(t *testing.T) {
	events := []cohort.WebinarEvent{
		{StoreID: "a", Month: "2025-01", StatusAtWebinar: "no-seller"},
		{StoreID: "a", Month: "2025-02", StatusAtWebinar: "tiny-seller"},
	}
	roster := []cohort.StoreRecord{
		store("a", 1, 1, "tiny-seller", 200),
		store("b", 1, 1, "no-seller", 800),
	}

	c := cohort.Build(events, roster)
	require.Len(t, c.Participants, 1)
	require.Len(t, c.Control, 1)
	assert.True(t, c.Participants[0].HadFirstSaleAfter)
	assert.Equal(t, cohort.Age6To12Months, c.Participants[0].AgeCategory)
	assert.Equal(t, cohort.Age2PlusYears, c.Control[0].AgeCategory)
	assert.Equal(t, cohort.AgeCategory(""), roster[1].AgeCategory)
}
