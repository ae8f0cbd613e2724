package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics carries the request-level and pipeline-level metrics of
// the advisor API.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	classificationsTotal *prometheus.CounterVec
	recommendationsTotal *prometheus.CounterVec
	recommendedClauses   *prometheus.HistogramVec
	pipelineDuration     *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clauseadvisor",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clauseadvisor",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "clauseadvisor",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clauseadvisor",
			Subsystem: "pipeline",
			Name:      "classifications_total",
			Help:      "Total successful exposure classifications by bucket.",
		},
		[]string{"service", "bucket"},
	)
	recommendationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clauseadvisor",
			Subsystem: "pipeline",
			Name:      "recommendations_total",
			Help:      "Total clause recommendation runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	recommendedClauses := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clauseadvisor",
			Subsystem: "pipeline",
			Name:      "recommended_clauses",
			Help:      "Distribution of recommended clause counts per run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 7, 10},
		},
		[]string{"service"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clauseadvisor",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end pipeline duration by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		classificationsTotal,
		recommendationsTotal,
		recommendedClauses,
		pipelineDuration,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		classificationsTotal: classificationsTotal,
		recommendationsTotal: recommendationsTotal,
		recommendedClauses:   recommendedClauses,
		pipelineDuration:     pipelineDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			normalizePath(r.URL.Path),
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, normalizePath(r.URL.Path)).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if len(path) > len("/output/") && path[:len("/output/")] == "/output/" {
		return "/output/{file}"
	}
	return path
}

func (m *HTTPServerMetrics) RecordClassification(service string, bucket string, duration time.Duration) {
	m.classificationsTotal.WithLabelValues(service, bucket).Inc()
	m.pipelineDuration.WithLabelValues(service, "process").Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRecommendation(service string, matchCount int, duration time.Duration) {
	outcome := "matched"
	if matchCount == 0 {
		outcome = "empty"
	}
	m.recommendationsTotal.WithLabelValues(service, outcome).Inc()
	m.recommendedClauses.WithLabelValues(service).Observe(float64(matchCount))
	m.pipelineDuration.WithLabelValues(service, "find_clauses").Observe(duration.Seconds())
}
