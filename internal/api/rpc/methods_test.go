package rpc

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/stretchr/testify/require"

	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/engine"
	"github.com/chimed/chimed/internal/repository/history"
)

// fakeEngine records snapshot replacements and serves canned stats.
type fakeEngine struct {
	mu       sync.Mutex
	snapshot *schedule.Snapshot
	updates  int
	stats    engine.Stats
}

func (f *fakeEngine) UpdateSnapshot(snapshot *schedule.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.snapshot = snapshot
	f.updates++
}

func (f *fakeEngine) Snapshot() *schedule.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.snapshot == nil {
		return &schedule.Snapshot{}
	}

	return f.snapshot.Clone()
}

func (f *fakeEngine) Stats() engine.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stats
}

// fakeLister serves canned journal rows and records the requested filter.
type fakeLister struct {
	mu     sync.Mutex
	rows   []history.Firing
	filter history.Filter
}

func (f *fakeLister) List(_ context.Context, filter history.Filter) ([]history.Firing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filter = filter

	return f.rows, nil
}

// newTestSession starts a jrpc2 session over an io.Pipe pair serving the
// provided server's method set, and returns a typed client for it.
func newTestSession(t *testing.T, s *Server) *Client {
	t.Helper()

	cr, sw := io.Pipe()
	sr, cw := io.Pipe()
	cliCh := channel.Line(cr, cw)
	srvCh := channel.Line(sr, sw)

	srv := jrpc2.NewServer(s.mux(), &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(srvCh)
	s.pool.Register(srv)

	cli := &Client{cli: jrpc2.NewClient(cliCh, nil)}

	t.Cleanup(func() {
		_ = cli.Close()
		s.pool.Unregister(srv)
		_ = srv.Wait()
	})

	return cli
}

func newTestServer(t *testing.T, eng Engine, lister HistoryLister) *Server {
	t.Helper()

	srv, err := New(&Options{
		SocketPath:   "unused.sock",
		Engine:       eng,
		History:      lister,
		TickInterval: 10 * time.Second,
		Cooldown:     50 * time.Second,
		StartedAt:    time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return srv
}

// TestNewRequiresEngineAndSocket rejects incomplete options.
func TestNewRequiresEngineAndSocket(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, errNoEngine)

	_, err = New(&Options{SocketPath: "x.sock"})
	require.ErrorIs(t, err, errNoEngine)

	_, err = New(&Options{Engine: &fakeEngine{}})
	require.ErrorIs(t, err, errNoSocketPath)
}

// TestScheduleUpdateAndGet round-trips a snapshot through the method set.
func TestScheduleUpdateAndGet(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	cli := newTestSession(t, newTestServer(t, eng, nil))

	snapshot := &schedule.Snapshot{Groups: []schedule.Group{
		{
			Name:      "Morning",
			IsEnabled: true,
			Alarms: []schedule.Alarm{
				{ID: "a1", Label: "Wake up", Time: "07:00", Days: []string{"Mon"}, IsEnabled: true},
				{ID: "a2", Time: "08:30", IsEnabled: true},
			},
		},
	}}

	result, err := cli.UpdateSchedule(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 1, result.Groups)
	require.Equal(t, 2, result.Alarms)
	require.Equal(t, 1, eng.updates)

	got, err := cli.GetSchedule(context.Background())
	require.NoError(t, err)
	require.Equal(t, snapshot.Groups, got.Groups)
}

// TestScheduleUpdateRejectsMalformedShape returns invalid params when the
// payload cannot decode into the snapshot shape at all.
func TestScheduleUpdateRejectsMalformedShape(t *testing.T) {
	t.Parallel()

	cli := newTestSession(t, newTestServer(t, &fakeEngine{}, nil))

	_, err := cli.cli.Call(context.Background(), MethodScheduleUpdate, json.RawMessage(`{"groups":"nope"}`))
	require.Error(t, err)

	var rpcErr *jrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, jrpc2.Code(-32602), rpcErr.Code)
}

// TestScheduleGetEmptyShape pins the never-updated wire shape.
func TestScheduleGetEmptyShape(t *testing.T) {
	t.Parallel()

	cli := newTestSession(t, newTestServer(t, &fakeEngine{}, nil))

	var raw json.RawMessage
	err := cli.cli.CallResult(context.Background(), MethodScheduleGet, nil, &raw)
	require.NoError(t, err)
	require.JSONEq(t, `{"groups":[]}`, string(raw))
}

// TestDaemonStatus assembles the status document from engine counters.
func TestDaemonStatus(t *testing.T) {
	t.Parallel()

	lastTick := time.Date(2024, time.January, 1, 7, 0, 30, 0, time.UTC)
	eng := &fakeEngine{stats: engine.Stats{
		Ticks:           14,
		Firings:         2,
		Suppressed:      5,
		SnapshotUpdates: 3,
		LastTick:        lastTick,
		LastFiredID:     "a1",
		Groups:          1,
		Alarms:          2,
	}}

	srv := newTestServer(t, eng, &fakeLister{})
	cli := newTestSession(t, srv)

	status, err := cli.Status(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, status.Version)
	require.Equal(t, "10s", status.TickInterval)
	require.Equal(t, "50s", status.Cooldown)
	require.Equal(t, uint64(14), status.Ticks)
	require.Equal(t, uint64(2), status.Firings)
	require.Equal(t, uint64(5), status.Suppressed)
	require.Equal(t, uint64(3), status.SnapshotUpdates)
	require.NotNil(t, status.LastTick)
	require.True(t, lastTick.Equal(*status.LastTick))
	require.Nil(t, status.LastFiring)
	require.Equal(t, "a1", status.LastFiredID)
	require.Equal(t, 1, status.Groups)
	require.Equal(t, 2, status.Alarms)
	require.Equal(t, 1, status.Watchers)
	require.True(t, status.HistoryEnabled)
}

// TestHistoryList forwards the filter and applies the default limit.
func TestHistoryList(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{rows: []history.Firing{
		{Seq: 2, AlarmID: "a1", Time: "07:00"},
		{Seq: 1, AlarmID: "a1", Time: "07:00"},
	}}

	cli := newTestSession(t, newTestServer(t, &fakeEngine{}, lister))

	rows, err := cli.History(context.Background(), 0, "a1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, int64(2), rows[0].Seq)

	lister.mu.Lock()
	defer lister.mu.Unlock()
	require.Equal(t, "a1", lister.filter.AlarmID)
	require.Equal(t, DefaultHistoryLimit, lister.filter.Limit)
}

// TestHistoryListDisabled reports a dedicated error without a journal.
func TestHistoryListDisabled(t *testing.T) {
	t.Parallel()

	cli := newTestSession(t, newTestServer(t, &fakeEngine{}, nil))

	_, err := cli.History(context.Background(), 10, "")
	require.Error(t, err)

	var rpcErr *jrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, codeHistoryDisabled, rpcErr.Code)
}
