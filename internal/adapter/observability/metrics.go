package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	MatchesComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_computed_total",
			Help: "Total number of match results computed",
		},
		[]string{"domain"},
	)
	MatchScoreHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_overall_score",
			Help:    "Distribution of overall match scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"domain"},
	)

	ReEvalTasksScheduledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reevaluation_tasks_scheduled_total",
			Help: "Total number of re-evaluation tasks scheduled",
		},
		[]string{"domain", "outcome"},
	)
	ReEvalTasksProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reevaluation_tasks_processing",
			Help: "Number of re-evaluation tasks currently processing",
		},
	)
	ReEvalTasksCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reevaluation_tasks_completed_total",
			Help: "Total number of re-evaluation tasks completed",
		},
	)
	ReEvalTasksFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reevaluation_tasks_failed_total",
			Help: "Total number of re-evaluation tasks failed",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(MatchesComputedTotal)
	prometheus.MustRegister(MatchScoreHistogram)
	prometheus.MustRegister(ReEvalTasksScheduledTotal)
	prometheus.MustRegister(ReEvalTasksProcessing)
	prometheus.MustRegister(ReEvalTasksCompletedTotal)
	prometheus.MustRegister(ReEvalTasksFailedTotal)
	prometheus.MustRegister(MatchDriftGauge)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveMatch records one computed match result and feeds drift detection.
func ObserveMatch(domain string, overallScore int) {
	MatchesComputedTotal.WithLabelValues(domain).Inc()
	MatchScoreHistogram.WithLabelValues(domain).Observe(float64(overallScore))
	RecordMatchScore(domain, float64(overallScore))
}

// TaskScheduled records the outcome of a schedule request. Outcome is
// "inserted" for a new task or "deduplicated" when an active task existed.
func TaskScheduled(domain string, inserted bool) {
	outcome := "deduplicated"
	if inserted {
		outcome = "inserted"
	}
	ReEvalTasksScheduledTotal.WithLabelValues(domain, outcome).Inc()
}

func StartProcessingTask() {
	ReEvalTasksProcessing.Inc()
}

func CompleteTask() {
	ReEvalTasksProcessing.Dec()
	ReEvalTasksCompletedTotal.Inc()
}

func FailTask() {
	ReEvalTasksProcessing.Dec()
	ReEvalTasksFailedTotal.Inc()
}
