package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/api/web"
	"github.com/chimed/chimed/internal/config"
	"github.com/chimed/chimed/internal/engine"
	"github.com/chimed/chimed/internal/logger"
	"github.com/chimed/chimed/internal/metrics"
	"github.com/chimed/chimed/internal/notify"
	"github.com/chimed/chimed/internal/repository/history"
	"github.com/chimed/chimed/internal/version"
)

// Options controls the chimed daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// SocketPath provides an optional control socket override.
	SocketPath string
	// WebAddr provides an optional ops HTTP address override.
	WebAddr string
}

// sweepInterval is how often the journal retention purge runs.
const sweepInterval = 12 * time.Hour

// Run wires the engine to its transports and blocks until the context is
// canceled or a listener fails. Startup errors are fatal; once the daemon is
// up, failures are logged and the tick loop keeps going.
//
//nolint:cyclop,funlen // Startup wiring is linear; splitting would hide the order.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "chimed")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Refuse to start when another chimed process is alive.
	if err = ensureSingleInstance(); err != nil {
		return err
	}

	// A cooldown close to the tick interval risks a second firing inside the
	// same due minute when ticks drift. Warn but keep going.
	if cfg.Cooldown < 2*cfg.TickInterval {
		logger.WarnKV(ctx, "Cooldown is close to the tick interval, consider raising it",
			"cooldown", cfg.Cooldown.String(), "tick_interval", cfg.TickInterval.String())
	}

	// Everything below shuts down together when Run returns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var journal *history.SQLiteRepository

	if cfg.HistoryFile != "" {
		journal, err = history.Open(cfg.HistoryFile)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}

		defer func() {
			_ = journal.Close()
		}()
	}

	registry := metrics.NewRegistry()
	meters := metrics.New(registry)

	// The session pool is shared by the push presenter and the control
	// server, so watchers hear firings over the connection they dialed.
	pool := rpc.NewPool(meters)

	presenter, err := buildPresenter(cfg, pool)
	if err != nil {
		return err
	}

	engineOpts := &engine.Options{
		TickInterval:  cfg.TickInterval,
		Cooldown:      cfg.Cooldown,
		NotifyTimeout: cfg.Notify.Timeout,
		Presenter:     presenter,
		Metrics:       meters,
	}
	if journal != nil {
		engineOpts.Recorder = journal
	}

	eng, err := engine.New(engineOpts)
	if err != nil {
		return fmt.Errorf("initialise engine: %w", err)
	}

	if err = eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	defer eng.Stop()

	ctlOpts := &rpc.Options{
		SocketPath:   cfg.SocketPath,
		Engine:       eng,
		TickInterval: cfg.TickInterval,
		Cooldown:     cfg.Cooldown,
		StartedAt:    time.Now(),
		Metrics:      meters,
		Pool:         pool,
	}
	if journal != nil {
		ctlOpts.History = journal
	}

	ctl, err := rpc.New(ctlOpts)
	if err != nil {
		return fmt.Errorf("initialise control API: %w", err)
	}

	serveErrors := make(chan error, 2)

	go func() {
		serveErrors <- ctl.Serve(ctx)
	}()

	if cfg.WebAddr != "" {
		var ops *web.Server

		ops, err = web.New(&web.Options{
			Addr:           cfg.WebAddr,
			Status:         ctl,
			MetricsHandler: metrics.Handler(registry),
		})
		if err != nil {
			return fmt.Errorf("initialise ops server: %w", err)
		}

		go func() {
			serveErrors <- ops.Serve(ctx)
		}()
	}

	if journal != nil {
		go sweepJournal(ctx, journal, cfg.HistoryRetention)
	}

	logger.InfoKV(ctx, "Daemon running",
		"version", version.Short(),
		"socket", cfg.SocketPath,
		"tick_interval", cfg.TickInterval.String(),
		"cooldown", cfg.Cooldown.String())

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Context canceled, daemon stopping")
		return nil
	case err = <-serveErrors:
		if err != nil {
			return err
		}

		return nil
	}
}

// loadSettings loads the YAML settings and applies command line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.SocketPath != "" {
		cfg.SocketPath = opts.SocketPath
	}

	if opts.WebAddr != "" {
		cfg.WebAddr = opts.WebAddr
	}

	return cfg, nil
}

// buildPresenter assembles the presenter chain from configuration. The
// structured log and the control-socket push are always active; the command
// and webhook presenters switch on when configured.
func buildPresenter(cfg *config.Config, pool *rpc.Pool) (notify.Presenter, error) {
	presenters := notify.Multi{
		notify.LogPresenter{},
		rpc.NewPushPresenter(pool),
	}

	if len(cfg.Notify.Command) > 0 {
		command, err := notify.NewCommandPresenter(cfg.Notify.Command)
		if err != nil {
			return nil, fmt.Errorf("notify command: %w", err)
		}

		presenters = append(presenters, command)
	}

	if cfg.Notify.WebhookURL != "" {
		presenters = append(presenters, notify.NewWebhookPresenter(cfg.Notify.WebhookURL, nil))
	}

	return presenters, nil
}

// sweepJournal purges journal rows older than the retention window, once at
// startup and then periodically.
func sweepJournal(ctx context.Context, journal *history.SQLiteRepository, retention time.Duration) {
	sweep := func() {
		removed, err := journal.Cleanup(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.ErrorKV(ctx, "Journal cleanup failed", "error", err)
			return
		}

		if removed > 0 {
			logger.InfoKV(ctx, "Journal cleaned up", "removed_rows", removed)
		}
	}

	sweep()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
