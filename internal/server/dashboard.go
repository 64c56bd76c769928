package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/charts"
	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/stats"
	"github.com/webinar-impact/webinar-impact/internal/status"
	"github.com/webinar-impact/webinar-impact/internal/store"
)

//go:embed templates/*.html assets/style.css
var webFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"pct":     formatPercentage,
	"pctPtr":  formatPercentagePtr,
	"money":   analysis.FormatMoney,
	"count":   analysis.FormatCount,
	"pvalue":  formatPValue,
	"verdict": verdict,
	"date":    func(imp *store.Import) string { return imp.CreatedAt.Format("Jan 2, 2006 15:04") },
}).ParseFS(webFS, "templates/*.html"))

// Dashboard template data structures
type layoutData struct {
	Title   string
	CSS     template.CSS
	Content template.HTML
}

type listData struct {
	Imports []*store.Import
}

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type chartLink struct {
	Title string
	URL   string
}

type reportData struct {
	Import  *store.Import
	Report  *analysis.Report
	JSONURL string
	Charts  []chartLink

	Horizons []selectOption
	Segments []selectOption
	Months   []selectOption
	Webinars []selectOption
	Statuses []selectOption

	ConversionSummary string
	GMVSummary        string
	EvolutionSummary  string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Handle logout
	if r.URL.Query().Get("logout") == "1" {
		http.SetCookie(w, &http.Cookie{
			Name:   tokenCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	imports, err := s.store.ListImports(r.Context())
	if err != nil {
		s.log.Error(r.Context(), "failed to list imports", err)
		http.Error(w, "Failed to load imports", http.StatusInternalServerError)
		return
	}

	s.renderDashboard(w, "Imports", "list.html", listData{Imports: imports})
}

// handleReport serves /dashboard/import/<id>.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimPrefix(r.URL.Path, "/dashboard/import/")
	if ref == "" || strings.Contains(ref, "/") {
		http.NotFound(w, r)
		return
	}

	imp, report, ok := s.loadReport(w, r, ref)
	if !ok {
		return
	}

	query := reportQuery(report.Options)
	data := reportData{
		Import:  imp,
		Report:  report,
		JSONURL: "/dashboard/api/report/" + imp.ID + query,

		Horizons: []selectOption{
			{Value: string(cohort.HorizonD30), Label: cohort.HorizonD30.Label(), Selected: report.Options.Horizon == cohort.HorizonD30},
			{Value: string(cohort.HorizonD90), Label: cohort.HorizonD90.Label(), Selected: report.Options.Horizon == cohort.HorizonD90},
		},
		Segments: []selectOption{
			{Value: string(cohort.SegmentCurrentStatus), Label: "Current status", Selected: report.Options.Segment == cohort.SegmentCurrentStatus},
			{Value: string(cohort.SegmentAgeCategory), Label: "Store age", Selected: report.Options.Segment == cohort.SegmentAgeCategory},
		},
		Months:   options(report.Overview.Months, report.Options.Month),
		Webinars: options(report.Overview.Webinars, report.Options.Webinar),
		Statuses: options(status.Canonical, report.Options.InitialStatus),

		ConversionSummary: analysis.SummaryConversion(report.Conversion),
		GMVSummary:        analysis.SummaryGMV(report.GMV),
		EvolutionSummary:  analysis.SummaryEvolution(report.Evolution),
	}
	for _, k := range charts.Kinds {
		data.Charts = append(data.Charts, chartLink{
			Title: string(k),
			URL:   fmt.Sprintf("/dashboard/chart/%s/%s.svg%s", imp.ID, k, query),
		})
	}

	s.renderDashboard(w, imp.Name, "report.html", data)
}

func options(values []string, selected string) []selectOption {
	out := make([]selectOption, 0, len(values))
	for _, v := range values {
		out = append(out, selectOption{Value: v, Label: v, Selected: v == selected})
	}
	return out
}

// reportQuery encodes non-default options so chart and JSON links reproduce
// the page's filters.
func reportQuery(o analysis.Options) string {
	q := url.Values{}
	q.Set("gmv", string(o.Horizon))
	q.Set("segment", string(o.Segment))
	if o.Month != "" {
		q.Set("month", o.Month)
	}
	if o.Webinar != "" {
		q.Set("webinar", o.Webinar)
	}
	if o.InitialStatus != "" {
		q.Set("status", o.InitialStatus)
	}
	return "?" + q.Encode()
}

func (s *Server) renderDashboard(w http.ResponseWriter, title, contentTemplate string, data any) {
	cssBytes, err := webFS.ReadFile("assets/style.css")
	if err != nil {
		http.Error(w, "Failed to load styles", http.StatusInternalServerError)
		return
	}

	var contentBuf bytes.Buffer
	if err := templates.ExecuteTemplate(&contentBuf, contentTemplate, data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to render template: %v", err), http.StatusInternalServerError)
		return
	}

	layout := layoutData{
		Title:   title,
		CSS:     template.CSS(cssBytes),
		Content: template.HTML(contentBuf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "layout.html", layout); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

func formatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func formatPercentagePtr(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return formatPercentage(*p)
}

func formatPValue(r stats.TestResult) string {
	if r.PValue == nil {
		return "n/a"
	}
	if *r.PValue < 0.0001 {
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", *r.PValue)
}

func verdict(r stats.TestResult) string {
	switch {
	case !r.OK():
		if r.Error != "" {
			return r.Error
		}
		return "not computed"
	case r.IsSignificant():
		return "significant"
	default:
		return "not significant"
	}
}
