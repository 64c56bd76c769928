package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all imports",
	Long:  `List all imported datasets with their row counts.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		imports, err := s.ListImports(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list imports: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(imports) == 0 {
			fmt.Fprintln(out, "No imports yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Import a webinar export and a store roster:")
			fmt.Fprintln(out, "  wia import webinars.xlsx stores.csv")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tWEBINAR ROWS\tSTORES\tCREATED")
		for _, imp := range imports {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				imp.ShortID(),
				imp.Name,
				analysis.FormatCount(imp.EventCount),
				analysis.FormatCount(imp.StoreCount),
				imp.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	})
}
