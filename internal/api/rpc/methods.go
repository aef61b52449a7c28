package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/engine"
	"github.com/chimed/chimed/internal/logger"
	"github.com/chimed/chimed/internal/repository/history"
	"github.com/chimed/chimed/internal/version"
)

// Method names served over the control socket.
const (
	MethodScheduleUpdate = "schedule.update"
	MethodScheduleGet    = "schedule.get"
	MethodDaemonStatus   = "daemon.status"
	MethodHistoryList    = "history.list"

	// MethodAlarmFired is the push notification sent to every connected
	// session on a granted firing.
	MethodAlarmFired = "alarm.fired"
)

// DefaultHistoryLimit caps history.list responses when the caller sends
// no limit of its own.
const DefaultHistoryLimit = 50

// codeHistoryDisabled reports history.list against a daemon running
// without a journal.
const codeHistoryDisabled = jrpc2.Code(-32001)

// Engine is the subset of the engine the control API drives.
type Engine interface {
	UpdateSnapshot(snapshot *schedule.Snapshot)
	Snapshot() *schedule.Snapshot
	Stats() engine.Stats
}

// HistoryLister reads journal rows for history.list.
type HistoryLister interface {
	List(ctx context.Context, filter history.Filter) ([]history.Firing, error)
}

// UpdateResult reports the size of an accepted snapshot.
type UpdateResult struct {
	Groups int `json:"groups"`
	Alarms int `json:"alarms"`
}

// HistoryParams filters a history.list call.
type HistoryParams struct {
	Limit   int    `json:"limit,omitempty"`
	AlarmID string `json:"alarmId,omitempty"`
}

// HistoryResult carries journal rows newest-first.
type HistoryResult struct {
	Firings []history.Firing `json:"firings"`
}

// StatusResult is the daemon.status document.
type StatusResult struct {
	Version         string     `json:"version"`
	StartedAt       time.Time  `json:"startedAt"`
	TickInterval    string     `json:"tickInterval"`
	Cooldown        string     `json:"cooldown"`
	Ticks           uint64     `json:"ticks"`
	Firings         uint64     `json:"firings"`
	Suppressed      uint64     `json:"suppressed"`
	SnapshotUpdates uint64     `json:"snapshotUpdates"`
	LastTick        *time.Time `json:"lastTick,omitempty"`
	LastFiring      *time.Time `json:"lastFiring,omitempty"`
	LastFiredID     string     `json:"lastFiredId,omitempty"`
	Groups          int        `json:"groups"`
	Alarms          int        `json:"alarms"`
	Watchers        int        `json:"watchers"`
	HistoryEnabled  bool       `json:"historyEnabled"`
}

// mux assembles the method table shared by every per-connection server.
func (s *Server) mux() handler.Map {
	return handler.Map{
		MethodScheduleUpdate: handler.New(s.scheduleUpdate),
		MethodScheduleGet:    handler.New(s.scheduleGet),
		MethodDaemonStatus:   handler.New(s.daemonStatus),
		MethodHistoryList:    handler.New(s.historyList),
	}
}

// scheduleUpdate replaces the engine's snapshot wholesale. Malformed values
// inside the snapshot are accepted; only params that cannot decode into the
// snapshot shape are rejected by the handler wrapper.
func (s *Server) scheduleUpdate(ctx context.Context, snapshot *schedule.Snapshot) (*UpdateResult, error) {
	if snapshot == nil {
		snapshot = &schedule.Snapshot{}
	}

	s.engine.UpdateSnapshot(snapshot)

	logger.InfoKV(ctx, "Schedule replaced",
		"groups", len(snapshot.Groups),
		"alarms", snapshot.CountAlarms(),
	)

	return &UpdateResult{
		Groups: len(snapshot.Groups),
		Alarms: snapshot.CountAlarms(),
	}, nil
}

// scheduleGet returns the snapshot currently visible to the engine.
func (s *Server) scheduleGet(_ context.Context) (*schedule.Snapshot, error) {
	snapshot := s.engine.Snapshot()
	if snapshot.Groups == nil {
		snapshot.Groups = []schedule.Group{}
	}

	return snapshot, nil
}

// daemonStatus assembles the status document from the engine counters.
func (s *Server) daemonStatus(_ context.Context) (*StatusResult, error) {
	stats := s.engine.Stats()

	result := &StatusResult{
		Version:         version.Short(),
		StartedAt:       s.startedAt,
		TickInterval:    s.tickInterval.String(),
		Cooldown:        s.cooldown.String(),
		Ticks:           stats.Ticks,
		Firings:         stats.Firings,
		Suppressed:      stats.Suppressed,
		SnapshotUpdates: stats.SnapshotUpdates,
		LastFiredID:     stats.LastFiredID,
		Groups:          stats.Groups,
		Alarms:          stats.Alarms,
		Watchers:        s.pool.Count(),
		HistoryEnabled:  s.history != nil,
	}

	if !stats.LastTick.IsZero() {
		lastTick := stats.LastTick
		result.LastTick = &lastTick
	}

	if !stats.LastFiring.IsZero() {
		lastFiring := stats.LastFiring
		result.LastFiring = &lastFiring
	}

	return result, nil
}

// Status assembles the same document served as daemon.status. The ops HTTP
// endpoint reuses it so both surfaces stay consistent.
func (s *Server) Status(ctx context.Context) *StatusResult {
	result, _ := s.daemonStatus(ctx)

	return result
}

// historyList returns journal rows newest-first.
func (s *Server) historyList(ctx context.Context, params *HistoryParams) (*HistoryResult, error) {
	if s.history == nil {
		return nil, &jrpc2.Error{Code: codeHistoryDisabled, Message: "history journal is disabled"}
	}

	if params == nil {
		params = &HistoryParams{}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	firings, err := s.history.List(ctx, history.Filter{AlarmID: params.AlarmID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	if firings == nil {
		firings = []history.Firing{}
	}

	return &HistoryResult{Firings: firings}, nil
}
