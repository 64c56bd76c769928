package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/logger"
	"github.com/webinar-impact/webinar-impact/internal/metrics"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

const defaultMaxUploadBytes = 32 << 20

// Options configures a Server. Zero values fall back to usable defaults.
type Options struct {
	Port           int
	TokenFile      string
	MaxUploadBytes int64
	DefaultHorizon cohort.Horizon
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
}

type Server struct {
	store          *store.SQLiteStore
	port           int
	token          string
	tokenFile      string
	maxUploadBytes int64
	defaultHorizon cohort.Horizon
	log            *logger.Logger
	metrics        *metrics.Metrics
	router         *http.ServeMux
	startTime      time.Time
}

func New(s *store.SQLiteStore, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.DefaultHorizon == "" {
		opts.DefaultHorizon = cohort.HorizonD30
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	srv := &Server{
		store:          s,
		port:           opts.Port,
		token:          generateToken(),
		tokenFile:      opts.TokenFile,
		maxUploadBytes: opts.MaxUploadBytes,
		defaultHorizon: opts.DefaultHorizon,
		log:            opts.Logger,
		metrics:        opts.Metrics,
		router:         http.NewServeMux(),
		startTime:      time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.handle("/health", "health", http.HandlerFunc(s.handleHealth))
	s.handle("/metrics", "metrics", s.metrics.Handler())

	// Dashboard endpoints (protected)
	s.handle("/dashboard", "dashboard", s.requireToken(http.HandlerFunc(s.handleDashboard)))
	s.handle("/dashboard/upload", "upload", s.requireToken(http.HandlerFunc(s.handleUpload)))
	s.handle("/dashboard/import/", "report", s.requireToken(http.HandlerFunc(s.handleReport)))
	s.handle("/dashboard/api/report/", "report_api", s.requireToken(http.HandlerFunc(s.handleReportAPI)))
	s.handle("/dashboard/chart/", "chart", s.requireToken(http.HandlerFunc(s.handleChart)))
}

func (s *Server) handle(pattern, route string, h http.Handler) {
	s.router.Handle(pattern, s.instrument(route, h))
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	return s.StartWithOptions(ctx, true)
}

// StartQuiet starts the server without printing startup messages
func (s *Server) StartQuiet(ctx context.Context) error {
	return s.StartWithOptions(ctx, false)
}

func (s *Server) StartWithOptions(ctx context.Context, printMessages bool) error {
	// Write token to file for the token command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.log.Warn(ctx, fmt.Sprintf("failed to write token file: %v", err))
		}
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if printMessages {
		fmt.Println()
		fmt.Printf("webinar-impact running on http://localhost:%d\n", s.port)
		fmt.Printf("Dashboard: http://localhost:%d/dashboard?token=%s\n", s.port, s.token)
		fmt.Println()
		fmt.Println("Press Ctrl+C to stop")
	}
	s.log.Info(ctx, fmt.Sprintf("listening on %s", httpSrv.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Store() *store.SQLiteStore {
	return s.store
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}
