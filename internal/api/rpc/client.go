package rpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/notify"
	"github.com/chimed/chimed/internal/repository/history"
)

// DefaultDialTimeout bounds the control socket connection attempt.
const DefaultDialTimeout = 5 * time.Second

// DialOptions tune a control-socket client.
type DialOptions struct {
	// OnAlarmFired, when set, receives every alarm.fired push.
	OnAlarmFired func(alert notify.Alert)
	// Timeout bounds the connection attempt. Zero means DefaultDialTimeout.
	Timeout time.Duration
}

// Client is a typed control-socket client. It is used by chimectl and by
// the integration tests; the daemon never dials itself.
type Client struct {
	conn net.Conn
	cli  *jrpc2.Client
}

// Dial connects to the daemon's control socket.
func Dial(socketPath string, opts *DialOptions) (*Client, error) {
	if opts == nil {
		opts = &DialOptions{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial control socket: %w", err)
	}

	return &Client{
		conn: conn,
		cli:  jrpc2.NewClient(channel.Line(conn, conn), clientOptions(opts)),
	}, nil
}

// clientOptions wires the push callback into the jrpc2 client.
func clientOptions(opts *DialOptions) *jrpc2.ClientOptions {
	if opts.OnAlarmFired == nil {
		return nil
	}

	onAlarmFired := opts.OnAlarmFired

	return &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) {
			if req.Method() != MethodAlarmFired {
				return
			}

			var alert notify.Alert
			if err := req.UnmarshalParams(&alert); err != nil {
				return
			}

			onAlarmFired(alert)
		},
	}
}

// Close terminates the session.
func (c *Client) Close() error {
	err := c.cli.Close()

	if c.conn != nil {
		_ = c.conn.Close()
	}

	return err
}

// UpdateSchedule replaces the daemon's snapshot wholesale.
func (c *Client) UpdateSchedule(ctx context.Context, snapshot *schedule.Snapshot) (*UpdateResult, error) {
	var result UpdateResult
	if err := c.cli.CallResult(ctx, MethodScheduleUpdate, snapshot, &result); err != nil {
		return nil, fmt.Errorf("call %s: %w", MethodScheduleUpdate, err)
	}

	return &result, nil
}

// GetSchedule fetches the snapshot currently visible to the engine.
func (c *Client) GetSchedule(ctx context.Context) (*schedule.Snapshot, error) {
	var snapshot schedule.Snapshot
	if err := c.cli.CallResult(ctx, MethodScheduleGet, nil, &snapshot); err != nil {
		return nil, fmt.Errorf("call %s: %w", MethodScheduleGet, err)
	}

	return &snapshot, nil
}

// Status fetches the daemon status document.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	var status StatusResult
	if err := c.cli.CallResult(ctx, MethodDaemonStatus, nil, &status); err != nil {
		return nil, fmt.Errorf("call %s: %w", MethodDaemonStatus, err)
	}

	return &status, nil
}

// History lists journal rows newest-first.
func (c *Client) History(ctx context.Context, limit int, alarmID string) ([]history.Firing, error) {
	params := &HistoryParams{Limit: limit, AlarmID: alarmID}

	var result HistoryResult
	if err := c.cli.CallResult(ctx, MethodHistoryList, params, &result); err != nil {
		return nil, fmt.Errorf("call %s: %w", MethodHistoryList, err)
	}

	return result.Firings, nil
}

// Ping performs a cheap round-trip, reporting whether the session is still
// alive. Watch loops use it to detect a daemon that went away.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Status(ctx); err != nil {
		return err
	}

	return nil
}
