package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

var (
	exportFilters filterFlags
	exportFormat  string
	exportCohort  string
)

var exportCmd = &cobra.Command{
	Use:   "export <import>",
	Short: "Export a prepared cohort",
	Long: `Export the participant or control cohort of an import, with derived
columns (age category, status change, first sale), in CSV or JSON format.
The analysis filters narrow the participant cohort.

Examples:
  wia export september --cohort participants > participants.csv
  wia export september --cohort control --format json > control.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportFilters.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	exportCmd.Flags().StringVarP(&exportCohort, "cohort", "c", "participants", "cohort to export (participants or control)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}
	if exportCohort != "participants" && exportCohort != "control" {
		return fmt.Errorf("invalid cohort: must be 'participants' or 'control'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		imp, err := resolveImport(ctx, s, args)
		if err != nil {
			return err
		}
		report, err := runAnalysis(ctx, s, imp, exportFilters.options())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		cohorts := report.Cohorts
		if exportCohort == "control" {
			if exportFormat == "csv" {
				return exportControlCSV(out, cohorts.Control)
			}
			return exportJSON(out, cohorts.Control)
		}
		if exportFormat == "csv" {
			return exportParticipantsCSV(out, cohorts.Participants)
		}
		return exportJSON(out, cohorts.Participants)
	})
}

var controlHeader = []string{"store_id", "gmv_d30", "gmv_d90", "current_status", "store_age_days", "age_category"}

func controlRow(s cohort.StoreRecord) []string {
	return []string{
		s.StoreID,
		formatFloat(s.GMVD30),
		formatFloat(s.GMVD90),
		s.CurrentStatus,
		formatFloat(s.StoreAgeDays),
		string(s.AgeCategory),
	}
}

func exportControlCSV(out io.Writer, control []cohort.StoreRecord) error {
	w := csv.NewWriter(out)

	if err := w.Write(controlHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range control {
		if err := w.Write(controlRow(s)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportParticipantsCSV(out io.Writer, participants []cohort.Participant) error {
	w := csv.NewWriter(out)

	header := append(append([]string{}, controlHeader...),
		"in_roster", "first_webinar_month", "webinar_count", "status_at_webinar",
		"status_change", "had_first_sale_after", "first_seller_at", "created_at")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range participants {
		row := append(controlRow(p.StoreRecord),
			strconv.FormatBool(p.InRoster),
			p.FirstWebinarMonth,
			strconv.Itoa(p.WebinarCount),
			p.StatusAtWebinar,
			string(p.StatusChange),
			strconv.FormatBool(p.HadFirstSaleAfter),
			formatTime(p.FirstSellerAt),
			formatTime(p.CreatedAt),
		)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportJSON(out io.Writer, rows any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
