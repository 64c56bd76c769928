package cohort

import (
	"sort"
	"strings"

	"github.com/webinar-impact/webinar-impact/internal/status"
)

// SummarizeParticipants groups attendance events by store. The first
// webinar month is the earliest month seen, the status at webinar comes
// from the chronologically first event (source order breaks ties), and the
// first non-nil dates are carried over. Rows without a store id are skipped.
func SummarizeParticipants(events []WebinarEvent) []ParticipantSummary {
	type group struct {
		summary ParticipantSummary
		first   *WebinarEvent
	}

	groups := make(map[string]*group)
	for i := range events {
		e := &events[i]
		id := strings.TrimSpace(e.StoreID)
		if id == "" {
			continue
		}

		g, ok := groups[id]
		if !ok {
			g = &group{summary: ParticipantSummary{StoreID: id}}
			groups[id] = g
		}

		g.summary.WebinarCount++
		if e.Month != "" && (g.summary.FirstWebinarMonth == "" || e.Month < g.summary.FirstWebinarMonth) {
			g.summary.FirstWebinarMonth = e.Month
		}
		if g.first == nil || earlier(e, g.first) {
			g.first = e
		}
		if g.summary.FirstSellerAt == nil && e.FirstSellerAt != nil {
			g.summary.FirstSellerAt = e.FirstSellerAt
		}
		if g.summary.CreatedAt == nil && e.CreatedAt != nil {
			g.summary.CreatedAt = e.CreatedAt
		}
	}

	summaries := make([]ParticipantSummary, 0, len(groups))
	for _, g := range groups {
		g.summary.StatusAtWebinar = status.Normalize(g.first.StatusAtWebinar)
		summaries = append(summaries, g.summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StoreID < summaries[j].StoreID
	})
	return summaries
}

// earlier reports whether a happened strictly before b. Undated events sort
// after dated ones; equal months keep source order.
func earlier(a, b *WebinarEvent) bool {
	if a.Month == "" {
		return false
	}
	if b.Month == "" {
		return true
	}
	return a.Month < b.Month
}

// BuildCohorts left-joins the participant summaries onto the store roster.
// Participants missing from the roster are kept with nil GMV, status and
// age. Control holds every roster row whose id is not a participant.
func BuildCohorts(summaries []ParticipantSummary, roster []StoreRecord) ([]Participant, []StoreRecord) {
	byID := make(map[string]StoreRecord, len(roster))
	for _, r := range roster {
		id := strings.TrimSpace(r.StoreID)
		if _, dup := byID[id]; !dup {
			byID[id] = r
		}
	}

	participantIDs := make(map[string]struct{}, len(summaries))
	participants := make([]Participant, 0, len(summaries))
	for _, s := range summaries {
		participantIDs[s.StoreID] = struct{}{}

		p := Participant{
			StoreRecord:       StoreRecord{StoreID: s.StoreID},
			FirstWebinarMonth: s.FirstWebinarMonth,
			WebinarCount:      s.WebinarCount,
			StatusAtWebinar:   s.StatusAtWebinar,
			FirstSellerAt:     s.FirstSellerAt,
			CreatedAt:         s.CreatedAt,
		}
		if r, ok := byID[s.StoreID]; ok {
			p.StoreRecord = r
			p.StoreID = s.StoreID
			p.InRoster = true
		}
		participants = append(participants, p)
	}

	control := make([]StoreRecord, 0, len(roster))
	for _, r := range roster {
		if _, ok := participantIDs[strings.TrimSpace(r.StoreID)]; ok {
			continue
		}
		control = append(control, r)
	}

	return participants, control
}

// DeriveParticipant returns a copy of p with age category, status change
// and first-sale flag filled in.
func DeriveParticipant(p Participant) Participant {
	p.AgeCategory = CategorizeAge(p.StoreAgeDays)
	p.StatusChange, _ = status.Classify(p.StatusAtWebinar, p.CurrentStatus)
	p.HadFirstSaleAfter = !status.IsSeller(p.StatusAtWebinar) && status.IsSeller(p.CurrentStatus)
	return p
}

// DeriveStore returns a copy of s with its age category filled in.
func DeriveStore(s StoreRecord) StoreRecord {
	s.AgeCategory = CategorizeAge(s.StoreAgeDays)
	return s
}

// Prepare derives every per-row field on fresh copies of both cohorts.
func Prepare(participants []Participant, control []StoreRecord) Cohorts {
	c := Cohorts{
		Participants: make([]Participant, len(participants)),
		Control:      make([]StoreRecord, len(control)),
	}
	for i, p := range participants {
		c.Participants[i] = DeriveParticipant(p)
	}
	for i, s := range control {
		c.Control[i] = DeriveStore(s)
	}
	return c
}

// Build runs the whole pipeline: summarize, join and derive.
func Build(events []WebinarEvent, roster []StoreRecord) Cohorts {
	participants, control := BuildCohorts(SummarizeParticipants(events), roster)
	return Prepare(participants, control)
}
