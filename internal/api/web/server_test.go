package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/metrics"
)

// stubStatus serves a canned status document.
type stubStatus struct {
	result *rpc.StatusResult
}

func (s *stubStatus) Status(_ context.Context) *rpc.StatusResult {
	return s.result
}

func newTestWeb(t *testing.T, metricsHandler http.Handler) *httptest.Server {
	t.Helper()

	srv, err := New(&Options{
		Addr: "127.0.0.1:0",
		Status: &stubStatus{result: &rpc.StatusResult{
			Version:      "test",
			TickInterval: "30s",
			Cooldown:     "1m0s",
			Ticks:        7,
		}},
		MetricsHandler: metricsHandler,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

// TestNewRequiresStatusAndAddr rejects incomplete options.
func TestNewRequiresStatusAndAddr(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, errNoStatusProvider)

	_, err = New(&Options{Status: &stubStatus{}})
	require.ErrorIs(t, err, errNoAddr)
}

// TestHealthz serves the liveness document.
func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := newTestWeb(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

// TestStatusEndpoint serves the daemon status document as JSON.
func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestWeb(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status rpc.StatusResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, "test", status.Version)
	require.Equal(t, "30s", status.TickInterval)
	require.Equal(t, uint64(7), status.Ticks)
}

// TestMetricsEndpoint exposes the engine instruments.
func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	m.Ticks.Inc()

	ts := newTestWeb(t, metrics.Handler(reg))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "chimed_ticks_total 1")
}

// TestMetricsDisabled returns 404 when no handler is wired.
func TestMetricsDisabled(t *testing.T) {
	t.Parallel()

	ts := newTestWeb(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestServeStopsOnContextCancel drains the listener when the daemon stops.
func TestServeStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv, err := New(&Options{
		Addr:   "127.0.0.1:0",
		Status: &stubStatus{result: &rpc.StatusResult{}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx)
	}()

	// Give the listener a moment to bind, then stop it.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err = <-serveErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

// TestMethodNotAllowed rejects writes to read-only routes.
func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	ts := newTestWeb(t, nil)

	resp, err := http.Post(ts.URL+"/healthz", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
