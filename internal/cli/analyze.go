package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

var (
	analyzeFilters filterFlags
	analyzeFormat  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [import]",
	Short: "Run the webinar impact analysis",
	Long: `Run the conversion (H1), GMV (H2) and status evolution (H3) analyses
for an import. The import may be given by id, id prefix or name; without
one you are asked to pick from the stored imports.

Examples:
  wia analyze september
  wia analyze 3f2a9c1e --gmv gmv_d90 --segment age_category
  wia analyze september --month 2025-09 --status no-seller --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeFilters.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format (text or json)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "text" && analyzeFormat != "json" {
		return fmt.Errorf("invalid format: must be 'text' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		imp, err := resolveImport(ctx, s, args)
		if err != nil {
			return err
		}
		report, err := runAnalysis(ctx, s, imp, analyzeFilters.options())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyzeFormat == "json" {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(map[string]any{"import": imp, "report": report})
		}
		printReport(out, imp, report)
		return nil
	})
}

func printReport(out io.Writer, imp *store.Import, r *analysis.Report) {
	fmt.Fprintf(out, "IMPORT: %s (%s)\n", imp.Name, imp.ShortID())
	fmt.Fprintf(out, "GMV WINDOW: %s\n", r.Options.Horizon.Label())
	if filters := describeFilters(r.Options); filters != "" {
		fmt.Fprintf(out, "FILTERS: %s\n", filters)
	}
	fmt.Fprintf(out, "PARTICIPANTS: %s   CONTROL: %s   WEBINARS: %d   MONTHS: %d\n",
		analysis.FormatCount(r.Overview.Participants),
		analysis.FormatCount(r.Overview.Control),
		len(r.Overview.Webinars),
		len(r.Overview.Months),
	)

	section(out, "H1: CONVERSION TO FIRST SALE")
	fmt.Fprintln(out, analysis.SummaryConversion(r.Conversion))
	if len(r.Conversion.ByMonth) > 0 {
		fmt.Fprintln(out)
		printGroups(out, "MONTH", r.Conversion.ByMonth)
	}
	if len(r.Conversion.ByAge) > 0 {
		fmt.Fprintln(out)
		printGroups(out, "STORE AGE", r.Conversion.ByAge)
	}

	section(out, "H2: GMV")
	fmt.Fprintln(out, analysis.SummaryGMV(r.GMV))
	if len(r.Segments) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\tPARTICIPANTS\tMEAN\tCONTROL\tMEAN\tDIFF\tP-VALUE\n", strings.ToUpper(string(r.Options.Segment)))
		for _, seg := range r.Segments {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\t%s\n",
				seg.Segment,
				seg.Participants.Count,
				analysis.FormatMoney(seg.Participants.Mean),
				seg.Control.Count,
				analysis.FormatMoney(seg.Control.Mean),
				formatPctPtr(seg.MeanDiffPct),
				formatP(seg.TTest.PValue),
			)
		}
		w.Flush()
	}

	section(out, "H3: STATUS EVOLUTION")
	fmt.Fprintln(out, analysis.SummaryEvolution(r.Evolution))
	if len(r.Evolution.ByInitialStatus) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INITIAL STATUS\tSTORES\tUPGRADE\tMAINTAINED\tDOWNGRADE")
		for _, b := range r.Evolution.ByInitialStatus {
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%.1f%%\t%.1f%%\n",
				b.InitialStatus, b.Total, b.UpgradeRate, b.MaintainedRate, b.DowngradeRate)
		}
		w.Flush()
	}
	if len(r.Flow.Edges) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FROM\tTO\tSTORES")
		for _, e := range r.Flow.Edges {
			fmt.Fprintf(w, "%s\t%s\t%d\n", r.Flow.Labels[e.Source], r.Flow.Labels[e.Target], e.Weight)
		}
		w.Flush()
	}
}

func section(out io.Writer, title string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("─", 60))
}

func printGroups(out io.Writer, label string, groups []analysis.GroupConversion) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTORES\tCONVERTED\tRATE\n", label)
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\n", g.Key, g.Total, g.Converted, g.ConversionRate)
	}
	w.Flush()
}

func describeFilters(o analysis.Options) string {
	var parts []string
	if o.Month != "" {
		parts = append(parts, "month="+o.Month)
	}
	if o.Webinar != "" {
		parts = append(parts, "webinar="+o.Webinar)
	}
	if o.InitialStatus != "" {
		parts = append(parts, "status="+o.InitialStatus)
	}
	return strings.Join(parts, " ")
}

func formatPctPtr(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", *p)
}

func formatP(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *p)
}
