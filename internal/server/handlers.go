package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/charts"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/ingest"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

type HealthResponse struct {
	Status        string `json:"status"`
	ImportsCount  int    `json:"imports_count"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	imports, err := s.store.ListImports(ctx)
	if err != nil {
		s.log.Error(ctx, "health check failed", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&dbSize); err != nil {
		dbSize = 0
	}

	writeJSON(w, HealthResponse{
		Status:        "ok",
		ImportsCount:  len(imports),
		DBSizeBytes:   dbSize,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// handleUpload accepts a multipart form with the webinar file ("webinars"),
// the store roster ("stores") and an optional import name ("name").
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.metrics.ImportFailed()
		http.Error(w, "Upload too large or malformed", http.StatusBadRequest)
		return
	}

	events, webinarName, err := readUpload(r, "webinars", ingest.LoadWebinarEvents)
	if err != nil {
		s.metrics.ImportFailed()
		http.Error(w, fmt.Sprintf("Invalid webinar file: %v", err), http.StatusBadRequest)
		return
	}
	roster, _, err := readUpload(r, "stores", ingest.LoadStoreRoster)
	if err != nil {
		s.metrics.ImportFailed()
		http.Error(w, fmt.Sprintf("Invalid store file: %v", err), http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = store.DefaultImportName(webinarName, time.Now())
	}

	imp, err := s.store.CreateImport(ctx, name, events, roster)
	if err != nil {
		s.metrics.ImportFailed()
		s.log.Error(ctx, "import failed", err)
		http.Error(w, "Failed to save import", http.StatusInternalServerError)
		return
	}
	s.metrics.ImportSucceeded()

	ctx = s.log.WithImportID(ctx, imp.ID)
	s.log.Info(ctx, fmt.Sprintf("imported %d events and %d stores", imp.EventCount, imp.StoreCount))

	http.Redirect(w, r, "/dashboard/import/"+imp.ID, http.StatusSeeOther)
}

func readUpload[T any](r *http.Request, field string, load func(io.Reader, string) ([]T, error)) ([]T, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file", field)
	}
	defer file.Close()

	rows, err := load(file, header.Filename)
	if err != nil {
		return nil, "", err
	}
	return rows, header.Filename, nil
}

// optionsFromQuery reads analysis options from dashboard query parameters.
func (s *Server) optionsFromQuery(q url.Values) (analysis.Options, error) {
	horizon := q.Get("gmv")
	if horizon == "" {
		horizon = string(s.defaultHorizon)
	}
	h, err := cohort.ParseHorizon(horizon)
	if err != nil {
		return analysis.Options{}, err
	}
	seg, err := cohort.ParseSegment(q.Get("segment"))
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Horizon:       h,
		Segment:       seg,
		Month:         q.Get("month"),
		Webinar:       q.Get("webinar"),
		InitialStatus: q.Get("status"),
	}, nil
}

// loadReport resolves an import and runs the analysis with the request's
// options. It writes the error response itself and returns ok=false on
// failure.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request, ref string) (*store.Import, *analysis.Report, bool) {
	ctx := r.Context()

	opts, err := s.optionsFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}

	imp, err := s.store.GetImport(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return nil, nil, false
	}
	if err != nil {
		s.log.Error(ctx, "failed to load import", err)
		http.Error(w, "Failed to load import", http.StatusInternalServerError)
		return nil, nil, false
	}
	ctx = s.log.WithImportID(ctx, imp.ID)

	report, err := s.runReport(ctx, imp, opts)
	if err != nil {
		s.metrics.ObserveReport(nil)
		s.log.Error(ctx, "analysis failed", err)
		http.Error(w, "Failed to run analysis", http.StatusInternalServerError)
		return nil, nil, false
	}
	s.metrics.ObserveReport(report)
	return imp, report, true
}

func (s *Server) runReport(ctx context.Context, imp *store.Import, opts analysis.Options) (*analysis.Report, error) {
	events, err := s.store.GetEvents(ctx, imp.ID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.GetRoster(ctx, imp.ID)
	if err != nil {
		return nil, err
	}
	return analysis.Run(ctx, events, roster, opts)
}

// handleReportAPI serves /dashboard/api/report/<id> as JSON.
func (s *Server) handleReportAPI(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimPrefix(r.URL.Path, "/dashboard/api/report/")
	if ref == "" || strings.Contains(ref, "/") {
		http.NotFound(w, r)
		return
	}

	imp, report, ok := s.loadReport(w, r, ref)
	if !ok {
		return
	}

	writeJSON(w, map[string]any{
		"import": imp,
		"report": report,
	})
}

// handleChart serves /dashboard/chart/<id>/<kind>.svg.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/dashboard/chart/")
	ref, file, found := strings.Cut(rest, "/")
	if !found || ref == "" || !strings.HasSuffix(file, ".svg") {
		http.NotFound(w, r)
		return
	}
	kind, err := charts.ParseKind(strings.TrimSuffix(file, ".svg"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	_, report, ok := s.loadReport(w, r, ref)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err = charts.Render(&buf, kind, report)
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "chart render failed", err)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
