// Package charts renders report sections as SVG bar charts for the dashboard.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

// Kind names one chart of a report.
type Kind string

const (
	KindConversion   Kind = "conversion"
	KindGMV          Kind = "gmv"
	KindDistribution Kind = "distribution"
	KindTransitions  Kind = "transitions"
)

// Kinds lists every chart the dashboard embeds, in page order.
var Kinds = []Kind{KindConversion, KindGMV, KindDistribution, KindTransitions}

var (
	ErrUnknownKind = errors.New("unknown chart kind")
	ErrNoData      = errors.New("no data to chart")
)

var (
	participantColor = drawing.ColorFromHex("2563eb")
	controlColor     = drawing.ColorFromHex("9ca3af")
	upgradeColor     = drawing.ColorFromHex("16a34a")
	downgradeColor   = drawing.ColorFromHex("dc2626")
)

const (
	barWidth   = 48
	barSpacing = 32
	minWidth   = 480
	height     = 360
)

// ParseKind validates a chart name taken from a URL.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Render writes the SVG for kind to w.
func Render(w io.Writer, kind Kind, r *analysis.Report) error {
	if r == nil {
		return ErrNoData
	}

	var (
		title string
		bars  []chart.Value
	)
	switch kind {
	case KindConversion:
		title = "Conversion rate (%)"
		bars = conversionBars(r.Conversion)
	case KindGMV:
		title = fmt.Sprintf("Mean GMV (%s)", r.GMV.Horizon.Label())
		bars = gmvBars(r.GMV)
	case KindDistribution:
		title = "Participants by current status"
		bars = distributionBars(r.Evolution.ParticipantsDistribution)
	case KindTransitions:
		title = "Status transitions (%)"
		bars = transitionBars(r.Evolution.Transitions)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(bars) == 0 {
		return ErrNoData
	}

	return renderBars(w, title, bars)
}

func renderBars(w io.Writer, title string, bars []chart.Value) error {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	// go-chart cannot scale an axis whose range is empty.
	if hi == lo {
		hi = lo + 1
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < minWidth {
		width = minWidth
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo * 1.1, Max: hi * 1.1},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func bar(label string, value float64, color drawing.Color) chart.Value {
	return chart.Value{
		Label: label,
		Value: value,
		Style: chart.Style{FillColor: color, StrokeColor: color},
	}
}

func conversionBars(c analysis.ConversionResult) []chart.Value {
	if c.Participants.Total == 0 && c.Control.Total == 0 {
		return nil
	}
	return []chart.Value{
		bar("Participants", c.Participants.ConversionRate, participantColor),
		bar("Control (seller rate)", c.Control.SellerRate, controlColor),
	}
}

func gmvBars(g analysis.GMVResult) []chart.Value {
	if g.Participants.Count == 0 && g.Control.Count == 0 {
		return nil
	}
	return []chart.Value{
		bar("Participants", g.Participants.Mean, participantColor),
		bar("Control", g.Control.Mean, controlColor),
	}
}

func distributionBars(counts []analysis.StatusCount) []chart.Value {
	var bars []chart.Value
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return nil
	}
	for _, s := range status.Canonical {
		n := 0
		for _, c := range counts {
			if c.Status == s {
				n = c.Count
				break
			}
		}
		bars = append(bars, bar(s, float64(n), participantColor))
	}
	return bars
}

func transitionBars(t *analysis.TransitionSummary) []chart.Value {
	if t == nil || t.ValidTransitions == 0 {
		return nil
	}
	return []chart.Value{
		bar("Upgrade", deref(t.UpgradeRate), upgradeColor),
		bar("Maintained", deref(t.MaintainedRate), controlColor),
		bar("Downgrade", deref(t.DowngradeRate), downgradeColor),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
