package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	leaveDecisions      *prometheus.CounterVec
	skippedDays         prometheus.Counter
	attendanceMutations *prometheus.CounterVec
	payrollRuns         *prometheus.CounterVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	leaveDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_decisions_total",
		Help: "Leave applications approved or rejected",
	}, []string{"decision"})

	skippedDays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leave_approval_skipped_days_total",
		Help: "Approved leave days not written because the month was locked or the day was fixed",
	})

	attendanceMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_mutations_total",
		Help: "Attendance month writes by operation",
	}, []string{"operation"})

	payrollRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_runs_total",
		Help: "Payroll calculations by result",
	}, []string{"result"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leave_allotment_cache_hits_total",
		Help: "Allotment cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leave_allotment_cache_misses_total",
		Help: "Allotment cache misses",
	})

	registry.MustRegister(
		requestDuration, leaveDecisions, skippedDays, attendanceMutations, payrollRuns, cacheHits, cacheMisses,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		leaveDecisions:      leaveDecisions,
		skippedDays:         skippedDays,
		attendanceMutations: attendanceMutations,
		payrollRuns:         payrollRuns,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request durations labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, path, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) LeaveDecision(decision string, skipped int) {
	if m == nil {
		return
	}
	m.leaveDecisions.WithLabelValues(decision).Inc()
	if skipped > 0 {
		m.skippedDays.Add(float64(skipped))
	}
}

func (m *Metrics) AttendanceMutation(operation string) {
	if m == nil {
		return
	}
	m.attendanceMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) PayrollRun(result string) {
	if m == nil {
		return
	}
	m.payrollRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
