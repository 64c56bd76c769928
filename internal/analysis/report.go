package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

// Options narrow and parameterize one analysis run. Empty filters keep
// everything.
type Options struct {
	Horizon       cohort.Horizon `json:"horizon"`
	Segment       cohort.Segment `json:"segment"`
	Month         string         `json:"month,omitempty"`
	Webinar       string         `json:"webinar,omitempty"`
	InitialStatus string         `json:"initial_status,omitempty"`
}

// Overview holds the headline counts of a run.
type Overview struct {
	Participants int      `json:"participants"`
	Control      int      `json:"control"`
	Webinars     []string `json:"webinars"`
	Months       []string `json:"months"`
}

// Report bundles every hypothesis result for one dataset and option set.
type Report struct {
	Options    Options          `json:"options"`
	Overview   Overview         `json:"overview"`
	Conversion ConversionResult `json:"conversion"`
	GMV        GMVResult        `json:"gmv"`
	Segments   []SegmentResult  `json:"segments"`
	Evolution  EvolutionResult  `json:"evolution"`
	Flow       Flow             `json:"flow"`

	Cohorts cohort.Cohorts `json:"-"`
}

// normalize fills defaults and validates the horizon and segment.
func (o Options) normalize() (Options, error) {
	h, err := cohort.ParseHorizon(string(o.Horizon))
	if err != nil {
		return o, err
	}
	s, err := cohort.ParseSegment(string(o.Segment))
	if err != nil {
		return o, err
	}
	o.Horizon, o.Segment = h, s
	return o, nil
}

// Run builds the cohorts from raw events and roster, applies the filters and
// runs the three hypothesis analyzers concurrently. The control cohort always
// comes from the unfiltered attendee set. A month or webinar filter that
// matches no events yields an empty participant cohort; it never falls back
// to the unfiltered participants.
func Run(ctx context.Context, events []cohort.WebinarEvent, roster []cohort.StoreRecord, opts Options) (*Report, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	all := cohort.Build(events, roster)
	participants := all.Participants

	if opts.Month != "" || opts.Webinar != "" {
		filtered := cohort.FilterEventsByWebinar(cohort.FilterEventsByMonth(events, opts.Month), opts.Webinar)
		participants = cohort.Build(filtered, roster).Participants
	}
	participants = cohort.FilterParticipantsByStatus(participants, opts.InitialStatus)
	control := all.Control

	report := &Report{
		Options: opts,
		Overview: Overview{
			Participants: len(participants),
			Control:      len(control),
			Webinars:     cohort.WebinarNames(events),
			Months:       cohort.Months(events),
		},
		Cohorts: cohort.Cohorts{Participants: participants, Control: control},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Conversion = AnalyzeConversion(participants, control)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.GMV = AnalyzeGMV(participants, control, opts.Horizon)
		report.Segments = AnalyzeGMVBySegment(participants, control, opts.Segment, opts.Horizon)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Evolution = AnalyzeStatusEvolution(participants, control)
		report.Flow = BuildTransitionFlow(participants)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	return report, nil
}
