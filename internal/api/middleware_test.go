package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"timed-cache/internal/logs"
	"timed-cache/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryMiddleware(t *testing.T) {
	logger := logs.NewLogger(10, logs.DEBUG)
	reg := metrics.NewRegistry()

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom!")
	})
	recoveredHandler := RecoveryMiddleware(logger, reg)(panicHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	recoveredHandler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal server error")
	assert.Equal(t, int64(1), reg.Value(metrics.HTTPPanicsTotal))

	last := logger.GetLast(1)
	require.Len(t, last, 1)
	assert.Equal(t, logs.ERROR, last[0].Level)
	assert.Equal(t, "boom!", last[0].Fields["panic"])
}

func TestLoggingMiddleware(t *testing.T) {
	logger := logs.NewLogger(10, logs.DEBUG)
	reg := metrics.NewRegistry()

	teapot := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	rr := httptest.NewRecorder()
	LoggingMiddleware(logger, reg)(teapot).ServeHTTP(rr, req)

	assert.Equal(t, int64(1), reg.Value(metrics.HTTPRequestsTotal))

	last := logger.GetLast(1)
	require.Len(t, last, 1)
	assert.Equal(t, "http request", last[0].Message)
	assert.Equal(t, "/brew", last[0].Fields["path"])
	assert.EqualValues(t, http.StatusTeapot, last[0].Fields["status"])
}

func TestChain(t *testing.T) {
	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "true")
			next.ServeHTTP(w, r)
		})
	}

	chained := Chain(finalHandler, mw)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	chained.ServeHTTP(rr, req)

	assert.Equal(t, "true", rr.Header().Get("X-Test"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
