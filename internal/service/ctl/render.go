package ctl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/logger"
	"github.com/chimed/chimed/internal/notify"
	"github.com/chimed/chimed/internal/repository/history"
)

const (
	// watchBuffer absorbs pushes that arrive while one is being printed.
	watchBuffer = 16
	// watchPingInterval is how often the watch loop probes the daemon. The
	// socket carries no traffic between firings, so without the probe a dead
	// daemon would go unnoticed until the next alarm.
	watchPingInterval = 30 * time.Second
)

// Show fetches and renders the daemon's current snapshot.
func Show(ctx context.Context, opts *Options) error {
	cli, err := connect(opts, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = cli.Close()
	}()

	snapshot, err := cli.GetSchedule(ctx)
	if err != nil {
		return err
	}

	renderSnapshot(opts.writer(), snapshot)

	return nil
}

// Status fetches and renders the daemon status document.
func Status(ctx context.Context, opts *Options) error {
	cli, err := connect(opts, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = cli.Close()
	}()

	status, err := cli.Status(ctx)
	if err != nil {
		return err
	}

	renderStatus(opts.writer(), status)

	return nil
}

// HistoryOptions controls chimectl history.
type HistoryOptions struct {
	Options

	// Limit caps the number of rows; zero uses the server default.
	Limit int
	// AlarmID restricts rows to one alarm when set.
	AlarmID string
}

// History fetches and renders journal rows, newest first.
func History(ctx context.Context, opts *HistoryOptions) error {
	cli, err := connect(&opts.Options, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = cli.Close()
	}()

	rows, err := cli.History(ctx, opts.Limit, opts.AlarmID)
	if err != nil {
		return err
	}

	renderHistory(opts.writer(), rows)

	return nil
}

// Watch subscribes to firing pushes and prints them until the context ends
// or the daemon goes away.
func Watch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "chimectl")

	alerts := make(chan notify.Alert, watchBuffer)

	cli, err := connect(opts, &rpc.DialOptions{
		OnAlarmFired: func(alert notify.Alert) {
			select {
			case alerts <- alert:
			default:
			}
		},
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = cli.Close()
	}()

	out := opts.writer()
	fmt.Fprintln(out, "watching for firings, interrupt to stop")

	ticker := time.NewTicker(watchPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case alert := <-alerts:
			fmt.Fprintf(out, "%s  %s: %s\n",
				alert.FiredAt.Format(time.RFC3339), alert.Title, alert.Body)
		case <-ticker.C:
			if err := cli.Ping(ctx); err != nil {
				return fmt.Errorf("daemon went away: %w", err)
			}
		}
	}
}

// renderSnapshot prints a snapshot in the schedule file's order.
func renderSnapshot(out io.Writer, snapshot *schedule.Snapshot) {
	if snapshot == nil || len(snapshot.Groups) == 0 {
		fmt.Fprintln(out, "no schedule pushed")
		return
	}

	for gi := range snapshot.Groups {
		group := &snapshot.Groups[gi]
		fmt.Fprintf(out, "%s%s\n", group.Name, disabledSuffix(group.IsEnabled))

		for ai := range group.Alarms {
			alarm := &group.Alarms[ai]

			days := "every day"
			if len(alarm.Days) > 0 {
				days = strings.Join(alarm.Days, ",")
			}

			label := alarm.Label
			if label == "" {
				label = notify.DefaultTitle
			}

			fmt.Fprintf(out, "  %s  %-20s %s  [%s]%s\n",
				alarm.Time, label, days, alarm.ID, disabledSuffix(alarm.IsEnabled))
		}
	}
}

// renderStatus prints the status document as aligned key/value lines.
func renderStatus(out io.Writer, status *rpc.StatusResult) {
	fmt.Fprintf(out, "version:          %s\n", status.Version)
	fmt.Fprintf(out, "started:          %s\n", status.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "tick interval:    %s\n", status.TickInterval)
	fmt.Fprintf(out, "cooldown:         %s\n", status.Cooldown)
	fmt.Fprintf(out, "groups/alarms:    %d/%d\n", status.Groups, status.Alarms)
	fmt.Fprintf(out, "ticks:            %d\n", status.Ticks)
	fmt.Fprintf(out, "firings:          %d (%d suppressed)\n", status.Firings, status.Suppressed)
	fmt.Fprintf(out, "snapshot updates: %d\n", status.SnapshotUpdates)
	fmt.Fprintf(out, "watchers:         %d\n", status.Watchers)

	if status.LastTick != nil {
		fmt.Fprintf(out, "last tick:        %s\n", status.LastTick.Format(time.RFC3339))
	}

	if status.LastFiring != nil {
		fmt.Fprintf(out, "last firing:      %s (%s)\n",
			status.LastFiring.Format(time.RFC3339), status.LastFiredID)
	}

	journal := "disabled"
	if status.HistoryEnabled {
		journal = "enabled"
	}

	fmt.Fprintf(out, "history:          %s\n", journal)
}

// renderHistory prints journal rows, one per line.
func renderHistory(out io.Writer, rows []history.Firing) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "no firings recorded")
		return
	}

	for _, row := range rows {
		status := "delivered"
		if !row.Delivered {
			status = "failed: " + row.Error
		}

		label := row.Label
		if label == "" {
			label = notify.DefaultTitle
		}

		fmt.Fprintf(out, "%s  %s  %s (%s)  %s\n",
			row.FiredAt.Format(time.RFC3339), row.AlarmID, label, row.GroupName, status)
	}
}

// disabledSuffix marks switched-off entries in rendered schedules.
func disabledSuffix(enabled bool) string {
	if enabled {
		return ""
	}

	return "  (disabled)"
}
