package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/stats"
)

func ptr(v float64) *float64 { return &v }

func sampleReport() *analysis.Report {
	return &analysis.Report{
		Conversion: analysis.ConversionResult{
			Participants: analysis.ParticipantConversion{Total: 10, ConversionRate: 40},
			Control:      analysis.ControlConversion{Total: 20, SellerRate: 25},
		},
		GMV: analysis.GMVResult{
			Horizon:      cohort.HorizonD30,
			Participants: stats.Summary{Count: 10, Mean: 450},
			Control:      stats.Summary{Count: 20, Mean: 300},
		},
		Evolution: analysis.EvolutionResult{
			Transitions: &analysis.TransitionSummary{
				ValidTransitions: 4,
				UpgradeRate:      ptr(50),
				MaintainedRate:   ptr(25),
				DowngradeRate:    ptr(25),
			},
			ParticipantsDistribution: []analysis.StatusCount{
				{Status: "no-seller", Count: 3},
				{Status: "new-seller", Count: 2},
			},
		},
	}
}

func TestRenderEveryKind(t *testing.T) {
	r := sampleReport()
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, kind, r))
			assert.True(t, strings.HasPrefix(buf.String(), "<svg"), "output should be SVG")
		})
	}
}

func TestRenderAllZeroValues(t *testing.T) {
	r := sampleReport()
	r.Conversion.Participants.ConversionRate = 0
	r.Conversion.Control.SellerRate = 0

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, KindConversion, r))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderNoData(t *testing.T) {
	empty := &analysis.Report{}
	for _, kind := range Kinds {
		err := Render(&bytes.Buffer{}, kind, empty)
		assert.True(t, errors.Is(err, ErrNoData), "%s: got %v", kind, err)
	}
	assert.ErrorIs(t, Render(&bytes.Buffer{}, KindGMV, nil), ErrNoData)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("gmv")
	require.NoError(t, err)
	assert.Equal(t, KindGMV, k)

	_, err = ParseKind("pie")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.ErrorIs(t, Render(&bytes.Buffer{}, Kind("pie"), sampleReport()), ErrUnknownKind)
}

func TestDistributionBarsCoverEveryStatus(t *testing.T) {
	bars := distributionBars(sampleReport().Evolution.ParticipantsDistribution)
	require.Len(t, bars, 7)
	assert.Equal(t, "no-seller", bars[0].Label)
	assert.Equal(t, 3.0, bars[0].Value)
	assert.Equal(t, 0.0, bars[6].Value)
}
