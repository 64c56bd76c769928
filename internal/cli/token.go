package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/store"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show dashboard URL with access token",
	Long: `Show the dashboard URL with your access token.

Use this when you've scrolled past the startup message or need to
share the dashboard link.

Example:
  wia token`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(getTokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: wia serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: wia serve")
	}

	// Try to get the server URL from settings
	serverURL := "http://localhost:8080"
	if err := withStore(func(s *store.SQLiteStore) error {
		url, err := s.GetSetting(context.Background(), serverURLSetting)
		if err == nil && url != "" {
			serverURL = url
		}
		return nil
	}); err != nil {
		log.Warn(context.Background(), err.Error())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dashboard: %s/dashboard?token=%s\n", serverURL, token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tip: Bookmark this URL or run 'wia token' anytime.")
	return nil
}
