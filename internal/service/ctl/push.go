package ctl

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/logger"
)

// PushOptions controls chimectl push.
type PushOptions struct {
	Options

	// Path is the schedule file to push.
	Path string
	// Watch keeps running and re-pushes whenever the file changes.
	Watch bool
	// Debounce coalesces rapid write bursts while watching.
	Debounce time.Duration
}

// DefaultDebounce covers the save-then-rename burst editors produce.
const DefaultDebounce = 500 * time.Millisecond

// Push validates, converts and uploads a schedule file. With Watch set it
// keeps running and re-pushes on every change until the context ends.
func Push(ctx context.Context, opts *PushOptions) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "chimectl")

	// Identify current user and hostname for audit logging.
	actor, err := DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	cli, err := connect(&opts.Options, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = cli.Close()
	}()

	p := &pusher{
		cli:   cli,
		actor: actor,
		path:  opts.Path,
		out:   opts.writer(),
	}

	if err = p.push(ctx); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return p.watch(ctx, debounce)
}

// pusher uploads one schedule file to a connected daemon.
type pusher struct {
	cli   *rpc.Client
	actor *Actor
	path  string
	out   io.Writer
}

// push loads, checks and uploads the current file revision. File problems
// are warnings here: the daemon tolerates them, the author should still
// hear about them.
func (p *pusher) push(ctx context.Context) error {
	snapshot, err := LoadScheduleFile(p.path)
	if err != nil {
		return err
	}

	for _, problem := range CheckSnapshot(snapshot) {
		logger.WarnKV(ctx, "Schedule problem", "at", problem.Path, "problem", problem.Message)
	}

	if filled := FillMissingIDs(snapshot); filled > 0 {
		logger.InfoKV(ctx, "Generated missing alarm ids", "count", filled)
	}

	result, err := p.cli.UpdateSchedule(ctx, snapshot)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Schedule pushed",
		"actor", p.actor.String(),
		"file", p.path,
		"groups", result.Groups,
		"alarms", result.Alarms)

	fmt.Fprintf(p.out, "pushed %s: %d groups, %d alarms\n", p.path, result.Groups, result.Alarms)

	return nil
}

// watch re-pushes the schedule whenever the file changes. Editors typically
// replace the file on save, which would kill a watch on the file itself, so
// the watch sits on the parent directory and filters by name.
func (p *pusher) watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	absPath, err := filepath.Abs(p.path)
	if err != nil {
		return fmt.Errorf("resolve schedule path: %w", err)
	}

	if err = watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch schedule directory: %w", err)
	}

	logger.InfoKV(ctx, "Watching schedule file", "path", absPath, "debounce", debounce.String())

	var (
		mu      sync.Mutex
		pending *time.Timer
	)

	defer func() {
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
	}()

	// repush runs on the debounce timer's goroutine. Failures are logged,
	// not fatal: the next save gets another chance.
	repush := func() {
		if err := p.push(ctx); err != nil {
			logger.ErrorKV(ctx, "Re-push failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filepath.Base(absPath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Coalesce an editor's write burst into one push.
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}

			pending = time.AfterFunc(debounce, repush)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorKV(ctx, "Watcher error", "error", err)
		}
	}
}
