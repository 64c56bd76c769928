package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/metrics"
	"github.com/webinar-impact/webinar-impact/internal/server"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

var port int

const serverURLSetting = "server_url"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the webinar-impact HTTP server.

The server provides:
  - Dashboard for uploading datasets and viewing reports
  - JSON report API and SVG charts
  - Health check and Prometheus metrics endpoints

Example:
  wia serve --port 8080`,
	RunE: runServe,
}

func init() {
	defaultPort := 8080
	if p := os.Getenv("WIA_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	rootCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("port") && cfg != nil {
		port = cfg.Port
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	opts := server.Options{
		Port:      port,
		TokenFile: getTokenFilePath(),
		Logger:    log,
		Metrics:   metrics.New(),
	}
	if cfg != nil {
		opts.MaxUploadBytes = cfg.MaxUploadBytes()
		opts.DefaultHorizon = cfg.Horizon()
	}
	srv := server.New(s, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rememberServerURL(ctx, s, port)
	return srv.Start(ctx)
}

// rememberServerURL records the dashboard address for 'wia token'. Failures
// are logged and otherwise ignored.
func rememberServerURL(ctx context.Context, s store.Store, port int) {
	url := fmt.Sprintf("http://localhost:%d", port)
	if err := s.SetSetting(ctx, serverURLSetting, url); err != nil {
		log.Warn(log.WithField(ctx, "server_url", url), "failed to remember server URL: "+err.Error())
	}
}
