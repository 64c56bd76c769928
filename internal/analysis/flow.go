package analysis

import (
	"sort"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

// FlowEdge links a before-status node (0..6) to an after-status node (7..13).
type FlowEdge struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Weight int `json:"weight"`
}

// Flow is the node and edge list of a status transition diagram.
type Flow struct {
	Labels []string   `json:"labels"`
	Edges  []FlowEdge `json:"edges"`
}

// BuildTransitionFlow counts every valid (before, after) status pair among
// attendees. Edges is empty when no attendee has two canonical statuses.
func BuildTransitionFlow(participants []cohort.Participant) Flow {
	n := len(status.Canonical)

	labels := make([]string, 0, 2*n)
	for _, s := range status.Canonical {
		labels = append(labels, s+" (before)")
	}
	for _, s := range status.Canonical {
		labels = append(labels, s+" (after)")
	}

	weights := make(map[[2]int]int)
	for _, p := range participants {
		before, after := status.Rank(p.StatusAtWebinar), status.Rank(p.CurrentStatus)
		if before < 0 || after < 0 {
			continue
		}
		weights[[2]int{before, after + n}]++
	}

	edges := make([]FlowEdge, 0, len(weights))
	for k, w := range weights {
		edges = append(edges, FlowEdge{Source: k[0], Target: k[1], Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	return Flow{Labels: labels, Edges: edges}
}
