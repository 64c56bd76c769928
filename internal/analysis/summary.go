package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/webinar-impact/webinar-impact/internal/stats"
)

// SummaryConversion renders the first-sale result as plain text.
func SummaryConversion(r ConversionResult) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Webinar participants:")
	fmt.Fprintf(&b, "- Total: %s stores\n", FormatCount(r.Participants.Total))
	fmt.Fprintf(&b, "- Converted to first sale: %s\n", FormatCount(r.Participants.Converted))
	fmt.Fprintf(&b, "- Conversion rate: %.1f%%\n", r.Participants.ConversionRate)

	fmt.Fprintln(&b, "\nControl group:")
	fmt.Fprintf(&b, "- Total: %s stores\n", FormatCount(r.Control.Total))
	fmt.Fprintf(&b, "- Sellers: %s\n", FormatCount(r.Control.Sellers))
	fmt.Fprintf(&b, "- Seller rate: %.1f%%\n", r.Control.SellerRate)

	if r.Lift != nil {
		if *r.Lift > 0 {
			fmt.Fprintf(&b, "\nLift: +%.1f%% (participants convert more)\n", *r.Lift)
		} else {
			fmt.Fprintf(&b, "\nLift: %.1f%%\n", *r.Lift)
		}
	}

	writeTest(&b, "Chi-square test", r.ChiSquare, "The difference")
	return strings.TrimRight(b.String(), "\n")
}

// SummaryGMV renders the GMV result as plain text.
func SummaryGMV(r GMVResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GMV, %s:\n", r.Horizon.Label())

	fmt.Fprintln(&b, "\nWebinar participants:")
	fmt.Fprintf(&b, "- Mean: %s\n", FormatMoney(r.Participants.Mean))
	fmt.Fprintf(&b, "- Median: %s\n", FormatMoney(r.Participants.Median))
	fmt.Fprintf(&b, "- Stores: %s\n", FormatCount(r.Participants.Count))

	fmt.Fprintln(&b, "\nControl group:")
	fmt.Fprintf(&b, "- Mean: %s\n", FormatMoney(r.Control.Mean))
	fmt.Fprintf(&b, "- Median: %s\n", FormatMoney(r.Control.Median))
	fmt.Fprintf(&b, "- Stores: %s\n", FormatCount(r.Control.Count))

	if r.MeanDiffPct != nil {
		direction := "higher"
		if *r.MeanDiffPct <= 0 {
			direction = "lower"
		}
		fmt.Fprintf(&b, "\nDifference: participants have a %.1f%% %s mean GMV\n", math.Abs(*r.MeanDiffPct), direction)
	}

	writeTest(&b, "Welch t-test", r.TTest, "The difference")
	writeTest(&b, "Mann-Whitney U test", r.MannWhitney, "The difference")
	return strings.TrimRight(b.String(), "\n")
}

// SummaryEvolution renders the status evolution result as plain text.
func SummaryEvolution(r EvolutionResult) string {
	var b strings.Builder

	if t := r.Transitions; t != nil {
		fmt.Fprintln(&b, "Participant status evolution:")
		fmt.Fprintf(&b, "- Analyzed: %s stores\n", FormatCount(t.TotalAnalyzed))
		fmt.Fprintf(&b, "- Valid transitions: %s\n", FormatCount(t.ValidTransitions))

		if t.ValidTransitions > 0 {
			fmt.Fprintln(&b, "\nTransition rates:")
			fmt.Fprintf(&b, "- Upgrade: %.1f%%\n", *t.UpgradeRate)
			fmt.Fprintf(&b, "- Maintained: %.1f%%\n", *t.MaintainedRate)
			fmt.Fprintf(&b, "- Downgrade: %.1f%%\n", *t.DowngradeRate)
			fmt.Fprintf(&b, "\nAverage magnitude: %s levels\n", signed(*t.AvgMagnitude))
		}
	}

	if chi := r.DistributionChiSquare; chi != nil && chi.OK() {
		verdict := "not significantly different"
		if chi.IsSignificant() {
			verdict = "significantly different"
		}
		fmt.Fprintln(&b, "\nCurrent status distribution:")
		fmt.Fprintf(&b, "- Participants vs control: %s\n", verdict)
		fmt.Fprintf(&b, "- p-value: %.4f\n", *chi.PValue)
	}

	if b.Len() == 0 {
		return "No participant has both a starting and a current status."
	}
	return strings.TrimSpace(b.String())
}

func writeTest(b *strings.Builder, title string, r stats.TestResult, subject string) {
	if !r.OK() {
		return
	}
	verdict := "is not statistically significant"
	if r.IsSignificant() {
		verdict = "is statistically significant"
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	fmt.Fprintf(b, "- p-value: %.4f\n", *r.PValue)
	fmt.Fprintf(b, "- %s %s (alpha = %.2f)\n", subject, verdict, stats.Alpha)
}

func signed(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatCount writes n with thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var out strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}

// FormatMoney writes v as a currency amount with two decimals.
func FormatMoney(v float64) string {
	whole := math.Trunc(math.Abs(v))
	cents := math.Round((math.Abs(v) - whole) * 100)
	if cents == 100 {
		whole++
		cents = 0
	}
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s.%02d", sign, FormatCount(int(whole)), int(cents))
}
