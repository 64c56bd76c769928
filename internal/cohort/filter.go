package cohort

import (
	"sort"

	"github.com/webinar-impact/webinar-impact/internal/status"
)

// FilterEventsByMonth keeps events whose parsed month or raw label equals
// month. An empty month returns a copy of all events.
func FilterEventsByMonth(events []WebinarEvent, month string) []WebinarEvent {
	return filterEvents(events, month == "", func(e WebinarEvent) bool {
		return e.Month == month || e.MonthLabel == month
	})
}

// FilterEventsByWebinar keeps events of a single webinar.
func FilterEventsByWebinar(events []WebinarEvent, name string) []WebinarEvent {
	return filterEvents(events, name == "", func(e WebinarEvent) bool {
		return e.WebinarName == name
	})
}

func filterEvents(events []WebinarEvent, all bool, keep func(WebinarEvent) bool) []WebinarEvent {
	out := make([]WebinarEvent, 0, len(events))
	for _, e := range events {
		if all || keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// FilterParticipantsByStatus keeps participants whose status at the first
// webinar matches s (case-insensitive).
func FilterParticipantsByStatus(participants []Participant, s string) []Participant {
	want := status.Normalize(s)
	out := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if want == "" || p.StatusAtWebinar == want {
			out = append(out, p)
		}
	}
	return out
}

// Months returns the distinct parsed webinar months, sorted.
func Months(events []WebinarEvent) []string {
	return distinct(events, func(e WebinarEvent) string { return e.Month })
}

// WebinarNames returns the distinct webinar names, sorted.
func WebinarNames(events []WebinarEvent) []string {
	return distinct(events, func(e WebinarEvent) string { return e.WebinarName })
}

func distinct(events []WebinarEvent, key func(WebinarEvent) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		k := key(e)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
