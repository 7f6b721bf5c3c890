package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	gradebookBuildsTotal        *prometheus.CounterVec
	gradebookBuildSeconds       prometheus.Histogram
	gradebookInvalidationsTotal *prometheus.CounterVec
	gradebookStreamsActive      prometheus.Gauge
	marksRecordedTotal          prometheus.Counter
	answersSubmittedTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradebookBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_builds_total",
			Help: "Gradebook responses served, by source (cache or computed).",
		}, []string{"source"})

		gradebookBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradebook_build_duration_seconds",
			Help:    "Time spent loading a course snapshot and computing its gradebook.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		gradebookInvalidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_invalidations_total",
			Help: "Gradebook cache invalidations, by origin (local or remote).",
		}, []string{"origin"})

		gradebookStreamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradebook_streams_active",
			Help: "Open gradebook change streams.",
		})

		marksRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marks_recorded_total",
			Help: "Grading events recorded.",
		})

		answersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "answers_submitted_total",
			Help: "Answers submitted, by kind (new or edit).",
		}, []string{"kind"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			gradebookBuildsTotal, gradebookBuildSeconds, gradebookInvalidationsTotal,
			gradebookStreamsActive, marksRecordedTotal, answersSubmittedTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradebookBuilds counts served gradebooks.
func GradebookBuilds() *prometheus.CounterVec {
	RegisterMetrics()
	return gradebookBuildsTotal
}

// GradebookBuildDuration observes computation latency.
func GradebookBuildDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradebookBuildSeconds
}

// GradebookInvalidations counts cache invalidations.
func GradebookInvalidations() *prometheus.CounterVec {
	RegisterMetrics()
	return gradebookInvalidationsTotal
}

// GradebookStreamsActive tracks open SSE subscribers.
func GradebookStreamsActive() prometheus.Gauge {
	RegisterMetrics()
	return gradebookStreamsActive
}

// MarksRecorded counts grading events.
func MarksRecorded() prometheus.Counter {
	RegisterMetrics()
	return marksRecordedTotal
}

// AnswersSubmitted counts answer submissions.
func AnswersSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return answersSubmittedTotal
}
