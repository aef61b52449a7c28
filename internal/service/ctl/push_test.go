package ctl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/engine"
)

// fakeEngine records snapshot updates pushed through the control API.
type fakeEngine struct {
	mu       sync.Mutex
	snapshot *schedule.Snapshot
	updates  int
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

	return engine.Stats{SnapshotUpdates: uint64(f.updates)}
}

func (f *fakeEngine) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.updates
}

// syncBuffer collects output written from another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// startControlServer runs a control API around a fake engine on a temporary
// socket and returns both plus the socket path.
func startControlServer(t *testing.T) (*rpc.Server, *fakeEngine, string) {
	t.Helper()

	eng := new(fakeEngine)
	socketPath := filepath.Join(t.TempDir(), "chimed.sock")

	srv, err := rpc.New(&rpc.Options{
		SocketPath:   socketPath,
		Engine:       eng,
		TickInterval: 10 * time.Second,
		Cooldown:     50 * time.Second,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = srv.Serve(ctx)
	}()

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(socketPath)

		return statErr == nil
	}, 2*time.Second, 10*time.Millisecond)

	return srv, eng, socketPath
}

// minimalSchedule renders a one-alarm schedule file.
func minimalSchedule(id string) string {
	return fmt.Sprintf(`groups:
  - name: Morning
    enabled: true
    alarms:
      - id: %s
        time: "09:30"
        enabled: true
`, id)
}

func TestPush(t *testing.T) {
	t.Parallel()

	_, eng, socketPath := startControlServer(t)

	schedulePath := filepath.Join(t.TempDir(), "schedule.yaml")
	scheduleYAML := `groups:
  - name: Morning
    enabled: true
    alarms:
      - id: a1
        label: Standup
        time: "09:30"
        days: [Mon, Wed]
        enabled: true
      - label: No id yet
        time: "10:00"
        enabled: true
`
	require.NoError(t, os.WriteFile(schedulePath, []byte(scheduleYAML), 0o600))

	var buf bytes.Buffer

	err := Push(context.Background(), &PushOptions{
		Options: Options{SocketPath: socketPath, Out: &buf},
		Path:    schedulePath,
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "1 groups, 2 alarms")

	// The missing id was filled before the upload.
	pushed := eng.Snapshot()
	require.Len(t, pushed.Groups, 1)
	require.Equal(t, "a1", pushed.Groups[0].Alarms[0].ID)
	require.NotEmpty(t, pushed.Groups[0].Alarms[1].ID)
}

func TestPushMissingFile(t *testing.T) {
	t.Parallel()

	_, _, socketPath := startControlServer(t)

	err := Push(context.Background(), &PushOptions{
		Options: Options{SocketPath: socketPath, Out: io.Discard},
		Path:    filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.Error(t, err)
}

func TestPushDaemonDown(t *testing.T) {
	t.Parallel()

	schedulePath := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(schedulePath, []byte(minimalSchedule("a1")), 0o600))

	err := Push(context.Background(), &PushOptions{
		Options: Options{
			SocketPath: filepath.Join(t.TempDir(), "nobody-home.sock"),
			Out:        io.Discard,
		},
		Path: schedulePath,
	})
	require.ErrorContains(t, err, "dial daemon")
}

// TestPushWatchRepushesOnChange replaces the schedule file the way an editor
// would and expects the watch loop to push the new revision.
func TestPushWatchRepushesOnChange(t *testing.T) {
	t.Parallel()

	_, eng, socketPath := startControlServer(t)

	dir := t.TempDir()
	schedulePath := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(schedulePath, []byte(minimalSchedule("a1")), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pushErr := make(chan error, 1)

	go func() {
		pushErr <- Push(ctx, &PushOptions{
			Options:  Options{SocketPath: socketPath, Out: io.Discard},
			Path:     schedulePath,
			Watch:    true,
			Debounce: 20 * time.Millisecond,
		})
	}()

	require.Eventually(t, func() bool {
		return eng.updateCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Editors save to a temp file and rename it over the original.
	replacement := filepath.Join(dir, "schedule.yaml.tmp")
	require.NoError(t, os.WriteFile(replacement, []byte(minimalSchedule("a2")), 0o600))
	require.NoError(t, os.Rename(replacement, schedulePath))

	require.Eventually(t, func() bool {
		return eng.updateCount() >= 2
	}, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, "a2", eng.Snapshot().Groups[0].Alarms[0].ID)

	cancel()

	select {
	case err := <-pushErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
