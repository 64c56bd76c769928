package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// getTokenFilePath returns the path to the token file
func getTokenFilePath() string {
	// Store token file alongside the database
	return filepath.Join(filepath.Dir(dbPath), ".wia-token")
}

// resolveImport looks up the import named by args[0], or asks the user to
// pick one when no argument is given.
func resolveImport(ctx context.Context, s *store.SQLiteStore, args []string) (*store.Import, error) {
	if len(args) > 0 {
		imp, err := s.GetImport(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("import '%s' not found", args[0])
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get import: %w", err)
		}
		return imp, nil
	}

	imports, err := s.ListImports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	if len(imports) == 0 {
		return nil, fmt.Errorf("no imports yet. Run: wia import <webinar-file> <store-file>")
	}
	if len(imports) == 1 {
		return imports[0], nil
	}

	items := make([]string, len(imports))
	for i, imp := range imports {
		items[i] = fmt.Sprintf("%s (%s, %s)", imp.Name, imp.ShortID(), imp.CreatedAt.Format("2006-01-02"))
	}
	prompt := promptui.Select{
		Label: "Select an import",
		Items: items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return imports[idx], nil
}

// filterFlags are the analysis options shared by analyze and export.
type filterFlags struct {
	horizon string
	segment string
	month   string
	webinar string
	status  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.horizon, "gmv", "", "GMV window: gmv_d30 or gmv_d90 (default from WIA_DEFAULT_HORIZON)")
	cmd.Flags().StringVar(&f.segment, "segment", string(cohort.SegmentCurrentStatus), "GMV segment column: current_status or age_category")
	cmd.Flags().StringVar(&f.month, "month", "", "only attendees of this webinar month (YYYY-MM or export label)")
	cmd.Flags().StringVar(&f.webinar, "webinar", "", "only attendees of this webinar")
	cmd.Flags().StringVar(&f.status, "status", "", "only attendees with this status at their first webinar")
}

func (f *filterFlags) options() analysis.Options {
	horizon := f.horizon
	if horizon == "" && cfg != nil {
		horizon = string(cfg.Horizon())
	}
	return analysis.Options{
		Horizon:       cohort.Horizon(horizon),
		Segment:       cohort.Segment(f.segment),
		Month:         f.month,
		Webinar:       f.webinar,
		InitialStatus: f.status,
	}
}

// runAnalysis loads an import's datasets and runs the full analysis.
func runAnalysis(ctx context.Context, s *store.SQLiteStore, imp *store.Import, opts analysis.Options) (*analysis.Report, error) {
	events, err := s.GetEvents(ctx, imp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load webinar events: %w", err)
	}
	roster, err := s.GetRoster(ctx, imp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store roster: %w", err)
	}

	ctx = log.WithImportID(ctx, imp.ID)
	report, err := analysis.Run(ctx, events, roster, opts)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, fmt.Sprintf("analyzed %d participants against %d control stores",
		report.Overview.Participants, report.Overview.Control))
	return report, nil
}
