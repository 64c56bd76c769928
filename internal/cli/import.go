package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/ingest"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

var importName string

var importCmd = &cobra.Command{
	Use:   "import <webinar-file> <store-file>",
	Short: "Import a webinar export and a store roster",
	Long: `Import a webinar participation export and the full store roster.

Both files may be CSV, TSV, semicolon-separated or XLSX (first sheet).

Examples:
  wia import webinars.xlsx stores.csv
  wia import webinars.tsv stores.tsv --name "september cohort"`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "import name (defaults to the webinar file name and time)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	events, err := loadFile(args[0], ingest.LoadWebinarEvents)
	if err != nil {
		return fmt.Errorf("failed to read webinar file: %w", err)
	}
	roster, err := loadFile(args[1], ingest.LoadStoreRoster)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	name := importName
	if name == "" {
		name = store.DefaultImportName(args[0], time.Now())
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		imp, err := s.CreateImport(ctx, name, events, roster)
		if err != nil {
			return fmt.Errorf("failed to save import: %w", err)
		}
		log.Info(log.WithImportID(ctx, imp.ID), "import created")

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported '%s' (%s)\n", imp.Name, imp.ShortID())
		fmt.Fprintf(out, "  %d webinar rows, %d stores\n", imp.EventCount, imp.StoreCount)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Analyze with: wia analyze %s\n", imp.ShortID())
		return nil
	})
}

func loadFile[T any](path string, load func(io.Reader, string) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return load(f, path)
}
