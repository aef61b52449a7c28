package rpc

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"

	"github.com/chimed/chimed/internal/logger"
	"github.com/chimed/chimed/internal/metrics"
	"github.com/chimed/chimed/internal/notify"
)

// Pool tracks the jrpc2 server of every connected control client and
// broadcasts push notifications to all of them.
type Pool struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	metrics *metrics.Metrics
}

// NewPool creates an empty session pool. Metrics may be nil.
func NewPool(m *metrics.Metrics) *Pool {
	return &Pool{
		servers: make(map[*jrpc2.Server]struct{}),
		metrics: m,
	}
}

// Register adds a session to the broadcast set.
func (p *Pool) Register(srv *jrpc2.Server) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.servers[srv] = struct{}{}
	p.updateGauge()
}

// Unregister removes a session from the broadcast set.
func (p *Pool) Unregister(srv *jrpc2.Server) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.servers, srv)
	p.updateGauge()
}

// Broadcast sends a push notification to every registered session.
// Sessions that fail to accept the push are dropped from the pool.
func (p *Pool) Broadcast(ctx context.Context, method string, params any) {
	p.mu.RLock()

	servers := make([]*jrpc2.Server, 0, len(p.servers))
	for srv := range p.servers {
		servers = append(servers, srv)
	}

	p.mu.RUnlock()

	var failed []*jrpc2.Server

	for _, srv := range servers {
		if err := srv.Notify(ctx, method, params); err != nil {
			logger.WarnKV(ctx, "Control push failed, dropping session", "error", err)

			failed = append(failed, srv)
		}
	}

	if len(failed) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, srv := range failed {
		delete(p.servers, srv)
	}

	p.updateGauge()
}

// StopAll stops every registered session and empties the pool.
func (p *Pool) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for srv := range p.servers {
		srv.Stop()
	}

	p.servers = make(map[*jrpc2.Server]struct{})
	p.updateGauge()
}

// Count returns the number of registered sessions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.servers)
}

// updateGauge publishes the session count. Callers must hold mu.
func (p *Pool) updateGauge() {
	if p.metrics == nil {
		return
	}

	p.metrics.Watchers.Set(float64(len(p.servers)))
}

// PushPresenter broadcasts every granted firing as an alarm.fired push to
// all connected control clients. Delivery is best effort.
type PushPresenter struct {
	pool *Pool
}

// NewPushPresenter builds a presenter over the provided session pool.
func NewPushPresenter(pool *Pool) *PushPresenter {
	return &PushPresenter{pool: pool}
}

// Present broadcasts the alert document. It never reports an error; dead
// sessions are pruned instead.
func (p *PushPresenter) Present(ctx context.Context, event notify.Event) error {
	p.pool.Broadcast(ctx, MethodAlarmFired, notify.NewAlert(event))

	return nil
}
