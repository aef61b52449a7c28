package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/logger"
	"github.com/chimed/chimed/internal/metrics"
	"github.com/chimed/chimed/internal/notify"
	"github.com/chimed/chimed/internal/repository/history"
)

// Options configures a new Engine.
type Options struct {
	// TickInterval is the period between due-evaluation passes.
	TickInterval time.Duration
	// Cooldown is the minimum time before the same alarm id may fire again.
	// It should exceed TickInterval by a comfortable margin (2x or more).
	Cooldown time.Duration
	// NotifyTimeout bounds a single presenter or journal call.
	NotifyTimeout time.Duration
	// Presenter receives granted firings. Required.
	Presenter notify.Presenter
	// Recorder journals granted firings. Optional.
	Recorder history.Recorder
	// Metrics receives tick/firing/suppression counters. Optional.
	Metrics *metrics.Metrics
	// Clock supplies time and the tick timer. Defaults to the real clock.
	Clock clockwork.Clock
}

// Default cadence settings. The cooldown must stay comfortably above the
// tick interval so an alarm due for a full minute fires exactly once.
const (
	DefaultTickInterval  = 30 * time.Second
	DefaultCooldown      = time.Minute
	DefaultNotifyTimeout = 10 * time.Second
)

var (
	// errNoPresenter indicates the engine was constructed without a presenter.
	errNoPresenter = errors.New("presenter is required")
	// errAlreadyStarted indicates Start was called twice.
	errAlreadyStarted = errors.New("engine already started")
)

// Stats is a point-in-time copy of the engine's counters.
type Stats struct {
	// Ticks is the number of due-evaluation passes run.
	Ticks uint64
	// Firings is the number of granted firings.
	Firings uint64
	// Suppressed is the number of due matches denied by the cooldown.
	Suppressed uint64
	// SnapshotUpdates is the number of accepted snapshot replacements.
	SnapshotUpdates uint64
	// LastTick is the instant of the most recent evaluation pass.
	LastTick time.Time
	// LastFiring is the instant of the most recent granted firing.
	LastFiring time.Time
	// LastFiredID is the alarm id of the most recent granted firing.
	LastFiredID string
	// Groups and Alarms describe the currently held snapshot.
	Groups int
	Alarms int
}

// Engine owns the trigger store, the periodic due-detector and the dedup
// guard. The zero value is not usable; construct with New.
type Engine struct {
	// mu guards the snapshot reference, the guard map and the stats, so a
	// tick sees a snapshot wholly before or wholly after a replacement.
	mu       sync.Mutex
	snapshot *schedule.Snapshot
	guard    *Cooldown
	stats    Stats

	clock         clockwork.Clock
	ticker        clockwork.Ticker
	tickInterval  time.Duration
	notifyTimeout time.Duration

	presenter notify.Presenter
	recorder  history.Recorder
	metrics   *metrics.Metrics

	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// New creates an engine. The presenter is required; everything else falls
// back to defaults.
func New(opts *Options) (*Engine, error) {
	if opts == nil || opts.Presenter == nil {
		return nil, errNoPresenter
	}

	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}

	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	notifyTimeout := opts.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Engine{
		guard:         NewCooldown(cooldown),
		clock:         clock,
		tickInterval:  tickInterval,
		notifyTimeout: notifyTimeout,
		presenter:     opts.Presenter,
		recorder:      opts.Recorder,
		metrics:       opts.Metrics,
		done:          make(chan struct{}),
	}, nil
}

// Start arms the periodic timer and launches the evaluation loop. Starting
// before the first snapshot arrives is legal: ticks against an empty store
// are no-ops.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()

		return errAlreadyStarted
	}

	e.started = true
	e.ticker = e.clock.NewTicker(e.tickInterval)
	e.mu.Unlock()

	go e.run(ctx)

	return nil
}

// Stop terminates the evaluation loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
	})
}

// UpdateSnapshot replaces the held snapshot wholesale and re-arms the
// periodic timer. The input is not validated: malformed entries are
// tolerated by the scan instead. The engine owns exactly one ticker, so
// re-arming can never leave a second timer running.
func (e *Engine) UpdateSnapshot(snap *schedule.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshot = snap
	e.stats.SnapshotUpdates++

	if e.ticker != nil {
		e.ticker.Reset(e.tickInterval)
	}

	if e.metrics != nil {
		var groups int
		if snap != nil {
			groups = len(snap.Groups)
		}

		e.metrics.SnapshotUpdates.Inc()
		e.metrics.Groups.Set(float64(groups))
		e.metrics.Alarms.Set(float64(snap.CountAlarms()))
	}
}

// Snapshot returns a copy of the currently held snapshot. An engine that was
// never updated reports an empty snapshot, not nil.
func (e *Engine) Snapshot() *schedule.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil {
		return &schedule.Snapshot{}
	}

	return e.snapshot.Clone()
}

// Stats returns a copy of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.stats
	if e.snapshot != nil {
		stats.Groups = len(e.snapshot.Groups)
		stats.Alarms = e.snapshot.CountAlarms()
	}

	return stats
}

// run is the evaluation loop. It exits on context cancellation or Stop; the
// ticker is stopped on the way out.
func (e *Engine) run(ctx context.Context) {
	defer e.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, engine stopping")
			return
		case <-e.done:
			logger.Info(ctx, "Engine stopped")
			return
		case <-e.ticker.Chan():
			e.tick(ctx)
		}
	}
}

// tick runs one due-evaluation pass: scan groups and alarms in store order
// and fire the first match the guard grants, then stop scanning. At most one
// firing per tick; a denied match does not shadow a later grantable one.
// Due-ness is evaluated against the clock's current instant rather than the
// tick's nominal schedule, so delayed ticks still check the right minute.
func (e *Engine) tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.stats.Ticks++
	e.stats.LastTick = now

	if e.metrics != nil {
		e.metrics.Ticks.Inc()
	}

	snap := e.snapshot
	if snap == nil {
		return
	}

	for gi := range snap.Groups {
		group := &snap.Groups[gi]
		if !group.IsEnabled {
			continue
		}

		for ai := range group.Alarms {
			alarm := &group.Alarms[ai]
			if !alarm.IsEnabled || !alarm.DueAt(now) {
				continue
			}

			if !e.guard.ShouldFire(alarm.ID, now) {
				e.stats.Suppressed++
				if e.metrics != nil {
					e.metrics.Suppressed.Inc()
				}

				logger.DebugKV(ctx, "Firing suppressed by cooldown", "alarm_id", alarm.ID)

				continue
			}

			// Record before presenting: a presentation failure must not
			// cause a refire on the next tick.
			e.guard.Record(alarm.ID, now)
			e.fire(ctx, alarm, group.Name, now)

			return
		}
	}
}

// fire delivers one granted firing to the presenter and the journal.
func (e *Engine) fire(ctx context.Context, alarm *schedule.Alarm, groupName string, now time.Time) {
	e.stats.Firings++
	e.stats.LastFiring = now
	e.stats.LastFiredID = alarm.ID

	if e.metrics != nil {
		e.metrics.Firings.Inc()
	}

	logger.InfoKV(ctx, "Alarm fired",
		"alarm_id", alarm.ID, "group", groupName, "time", alarm.Time)

	event := notify.Event{
		Alarm:   *alarm.Clone(),
		Group:   groupName,
		FiredAt: now,
	}

	presentCtx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	presentErr := e.presenter.Present(presentCtx, event)

	cancel()

	if presentErr != nil {
		if e.metrics != nil {
			e.metrics.PresenterErrors.Inc()
		}

		logger.ErrorKV(ctx, "Presenter failed", "alarm_id", alarm.ID, "error", presentErr)
	}

	if e.recorder == nil {
		return
	}

	firing := history.Firing{
		AlarmID:   alarm.ID,
		Label:     alarm.Label,
		GroupName: groupName,
		Time:      alarm.Time,
		FiredAt:   now,
		Delivered: presentErr == nil,
	}
	if presentErr != nil {
		firing.Error = presentErr.Error()
	}

	recordCtx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()

	if err := e.recorder.Record(recordCtx, firing); err != nil {
		logger.ErrorKV(ctx, "Failed to journal firing", "alarm_id", alarm.ID, "error", err)
	}
}
