package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webinar-impact/webinar-impact/internal/analysis"
	"github.com/webinar-impact/webinar-impact/internal/stats"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer
	imports  *prometheus.CounterVec
	analyses *prometheus.CounterVec
	tests    *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wia_imports_total",
			Help: "Dataset imports by outcome.",
		}, []string{"result"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wia_analyses_total",
			Help: "Analysis runs by outcome.",
		}, []string{"result"}),
		tests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wia_test_results_total",
			Help: "Statistical test results by test and outcome.",
		}, []string{"test", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wia_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(m.imports, m.analyses, m.tests, m.requests)
	return m
}

func (m *Metrics) ImportSucceeded() {
	if m == nil {
		return
	}
	m.imports.WithLabelValues("success").Inc()
}

func (m *Metrics) ImportFailed() {
	if m == nil {
		return
	}
	m.imports.WithLabelValues("failure").Inc()
}

// ObserveReport counts a finished analysis run and the outcome of each of
// its statistical tests. A nil report counts as a failed run.
func (m *Metrics) ObserveReport(r *analysis.Report) {
	if m == nil {
		return
	}
	if r == nil {
		m.analyses.WithLabelValues("failure").Inc()
		return
	}
	m.analyses.WithLabelValues("success").Inc()

	m.observeTest(r.Conversion.ChiSquare)
	m.observeTest(r.GMV.TTest)
	m.observeTest(r.GMV.MannWhitney)
	for _, s := range r.Segments {
		m.observeTest(s.TTest)
	}
	if chi := r.Evolution.DistributionChiSquare; chi != nil {
		m.observeTest(*chi)
	}
}

func (m *Metrics) observeTest(r stats.TestResult) {
	outcome := "ok"
	if !r.OK() {
		outcome = "no_result"
	}
	m.tests.WithLabelValues(r.Test, outcome).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
