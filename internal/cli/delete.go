package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/store"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <import>",
	Short: "Delete an import and its datasets",
	Long: `Delete an import together with its webinar events and store roster.

Examples:
  wia delete september
  wia delete 3f2a9c1e --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		imp, err := resolveImport(ctx, s, args)
		if err != nil {
			return err
		}

		if !deleteYes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Delete '%s' (%d webinar rows, %d stores)", imp.Name, imp.EventCount, imp.StoreCount),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				if errors.Is(err, promptui.ErrAbort) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				return fmt.Errorf("confirmation failed: %w", err)
			}
		}

		if err := s.DeleteImport(ctx, imp.ID); err != nil {
			return fmt.Errorf("failed to delete import: %w", err)
		}
		log.Info(log.WithImportID(ctx, imp.ID), "import deleted")

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s' (%s)\n", imp.Name, imp.ShortID())
		return nil
	})
}
