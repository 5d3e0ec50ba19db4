package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPMiddleware(t *testing.T) {
	metrics := NewMetricsCollector(zap.NewNop())

	r := chi.NewRouter()
	r.Use(metrics.HTTPMiddleware)
	r.Get("/api/recipe/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/api/recipes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	for _, path := range []string{"/api/recipe/1", "/api/recipe/2", "/api/recipes"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		metrics.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/recipe/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/recipes", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.httpActiveRequests))
}

func TestBusinessMetrics(t *testing.T) {
	metrics := NewMetricsCollector(zap.NewNop())

	metrics.UserRegistered("password")
	metrics.UserRegistered("oauth")
	metrics.UserRegistered("oauth")
	metrics.Login(false)
	metrics.RatingSubmitted("regular")
	metrics.AssistantReply(true, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.usersRegisteredTotal.WithLabelValues("oauth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.loginsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ratingsSubmitted.WithLabelValues("regular")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.assistantReplies.WithLabelValues("offline")))
}

func TestMetricsHandler(t *testing.T) {
	metrics := NewMetricsCollector(zap.NewNop())
	metrics.RatingSubmitted("ai")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ratings_submitted_total{category="ai"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestDisabledTracing(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
