package monitoring

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection. Every collector is
// registered on its own registry so tests can create as many as they like.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpActiveRequests  prometheus.Gauge

	// Business metrics
	usersRegisteredTotal *prometheus.CounterVec
	loginsTotal          *prometheus.CounterVec
	ratingsSubmitted     *prometheus.CounterVec
	assistantReplies     *prometheus.CounterVec
	assistantDuration    prometheus.Histogram
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	m := &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Number of requests currently being served",
			},
		),

		usersRegisteredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_registered_total",
				Help: "Total number of accounts created",
			},
			[]string{"method"},
		),
		loginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"},
		),
		ratingsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratings_submitted_total",
				Help: "Total number of accepted rating submissions",
			},
			[]string{"category"},
		),
		assistantReplies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_replies_total",
				Help: "Total number of assistant replies",
			},
			[]string{"mode"},
		),
		assistantDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_request_duration_seconds",
				Help:    "Assistant request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpActiveRequests,
		m.usersRegisteredTotal,
		m.loginsTotal,
		m.ratingsSubmitted,
		m.assistantReplies,
		m.assistantDuration,
	)

	return m
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB exports connection pool statistics for db
func (m *MetricsCollector) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// HTTPMiddleware records request count, latency and in-flight requests. The
// path label is the chi route pattern so ids do not explode cardinality.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpActiveRequests.Inc()
		defer m.httpActiveRequests.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		statusCode := strconv.Itoa(status)
		m.httpRequestsTotal.WithLabelValues(r.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path, statusCode).Observe(time.Since(start).Seconds())
	})
}

// Business metric methods

func (m *MetricsCollector) UserRegistered(method string) {
	m.usersRegisteredTotal.WithLabelValues(method).Inc()
}

func (m *MetricsCollector) Login(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.loginsTotal.WithLabelValues(status).Inc()
}

func (m *MetricsCollector) RatingSubmitted(category string) {
	m.ratingsSubmitted.WithLabelValues(category).Inc()
}

func (m *MetricsCollector) AssistantReply(offline bool, duration time.Duration) {
	mode := "online"
	if offline {
		mode = "offline"
	}
	m.assistantReplies.WithLabelValues(mode).Inc()
	m.assistantDuration.Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
