package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhutter/taskmill/internal/engine"
)

func newTestHandler(t *testing.T, workerCount int) (*AdminHandler, *engine.Enablement, http.Handler) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enablement := engine.NewEnablement()
	pool, err := engine.NewPool(
		engine.NewMemoryQueue(),
		engine.NewRegistry(),
		enablement,
		nil,
		engine.PoolConfig{WorkerCount: workerCount, QueuePollingDelay: time.Second},
		logger,
	)
	require.NoError(t, err)

	handler := NewAdminHandler(pool, enablement, logger)
	return handler, enablement, handler.Router(prometheus.NewRegistry())
}

func TestAdmin_Healthz(t *testing.T) {
	t.Parallel()

	_, _, router := newTestHandler(t, 2)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAdmin_ListWorkers(t *testing.T) {
	t.Parallel()

	_, enablement, router := newTestHandler(t, 3)
	enablement.SetEnabled(1, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/workers", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var statuses []WorkerStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 3)

	assert.Equal(t, 0, statuses[0].Ordinal)
	assert.True(t, statuses[0].Enabled)
	assert.False(t, statuses[1].Enabled)
	assert.True(t, statuses[2].Enabled)
	for _, s := range statuses {
		assert.NotEmpty(t, s.UUID)
	}
}

func TestAdmin_SetWorkerEnabled(t *testing.T) {
	t.Parallel()

	_, enablement, router := newTestHandler(t, 2)

	// Disable worker 1.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/workers/1/enabled", strings.NewReader(`{"enabled":false}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	identity, err := engine.NewWorkerIdentity(1)
	require.NoError(t, err)
	assert.False(t, enablement.IsEnabled(identity))

	// Re-enable it.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/workers/1/enabled", strings.NewReader(`{"enabled":true}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, enablement.IsEnabled(identity))
}

func TestAdmin_SetWorkerEnabledErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{name: "non-numeric ordinal", target: "/workers/two/enabled", body: `{"enabled":false}`, status: http.StatusBadRequest},
		{name: "unknown ordinal", target: "/workers/9/enabled", body: `{"enabled":false}`, status: http.StatusNotFound},
		{name: "missing body field", target: "/workers/0/enabled", body: `{}`, status: http.StatusBadRequest},
		{name: "malformed body", target: "/workers/0/enabled", body: `{`, status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, router := newTestHandler(t, 2)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, tc.target, strings.NewReader(tc.body))
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAdmin_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	_, _, router := newTestHandler(t, 1)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
