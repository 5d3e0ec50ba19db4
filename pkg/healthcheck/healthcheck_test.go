package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePinger struct {
	err   error
	calls atomic.Int32
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func staticChecker(status Status, message string) Checker {
	return NewCustomChecker("static", func(ctx context.Context) (Status, string, interface{}) {
		return status, message, nil
	})
}

func TestCheck_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestCheck_OverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, s := range tt.statuses {
				hc.Register(string(rune('a'+i)), staticChecker(s, ""))
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.expected, response.Status)
			require.Len(t, response.Checks, len(tt.statuses))
			assert.Equal(t, "a", response.Checks[0].Name)
		})
	}
}

func TestCheck_IsCached(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	pinger := &fakePinger{}
	hc.Register("cache", NewPingChecker("cache", pinger))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), pinger.calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), pinger.calls.Load())
}

func TestPingChecker(t *testing.T) {
	healthy := NewPingChecker("cache", &fakePinger{}).Check(context.Background())
	assert.Equal(t, StatusHealthy, healthy.Status)

	failed := NewPingChecker("cache", &fakePinger{err: errors.New("connection refused")}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, failed.Status)
	assert.Equal(t, "connection refused", failed.Message)
}

func TestDatabaseChecker(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	check := NewDatabaseChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Contains(t, check.Metadata, "open_conns")

	require.NoError(t, sqlDB.Close())
	check = NewDatabaseChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
}

func TestHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		hc := New("2.1.0", zap.NewNop())
		hc.Register("cache", NewPingChecker("cache", &fakePinger{}))

		rec := httptest.NewRecorder()
		hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "2.1.0", body["version"])
		assert.Contains(t, body, "total_duration_ms")

		checks := body["checks"].([]interface{})
		require.Len(t, checks, 1)
		assert.Contains(t, checks[0], "duration_ms")
	})

	t.Run("unhealthy", func(t *testing.T) {
		hc := New("2.1.0", zap.NewNop())
		hc.Register("database", staticChecker(StatusUnhealthy, "database is locked"))

		rec := httptest.NewRecorder()
		hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCheck_Timeout(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.timeout = 20 * time.Millisecond
	hc.Register("slow", NewCustomChecker("slow", func(ctx context.Context) (Status, string, interface{}) {
		<-ctx.Done()
		return StatusUnhealthy, ctx.Err().Error(), nil
	}))

	response := hc.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), response.Checks[0].Message)
}
