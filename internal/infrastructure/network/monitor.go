// Package network provides the origin connectivity monitor.
package network

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
)

// Monitor probes the origin on an interval and fires callbacks on the
// offline-to-online transition. Going offline only flips the observable
// flag; nothing speculative happens at that moment.
type Monitor struct {
	client   *origin.Client
	interval time.Duration
	logger   *logging.ChanneledLogger

	online  atomic.Bool
	syncing atomic.Bool

	mu         sync.Mutex
	onOnline   []func(ctx context.Context)
	everProbed bool
}

// NewMonitor creates a connectivity monitor.
func NewMonitor(client *origin.Client, interval time.Duration, logger *logging.ChanneledLogger) *Monitor {
	m := &Monitor{
		client:   client,
		interval: interval,
		logger:   logger,
	}
	m.online.Store(true)
	return m
}

// OnOnline registers a callback fired on every offline-to-online
// transition. Callbacks run sequentially on the monitor goroutine.
func (m *Monitor) OnOnline(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// Online reports current connectivity.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Syncing reports whether a sync is currently in flight.
func (m *Monitor) Syncing() bool {
	return m.syncing.Load()
}

// SetSyncing flips the syncing flag; set by replay and refresh jobs.
func (m *Monitor) SetSyncing(syncing bool) {
	m.syncing.Store(syncing)
}

// Start begins probing. It blocks until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Network().Info("Network monitor started", "interval", m.interval)
	m.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Shutdown().Info("Network monitor stopping")
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	reachable := m.client.Probe(ctx)
	wasOnline := m.online.Load()
	m.online.Store(reachable)

	m.mu.Lock()
	first := !m.everProbed
	m.everProbed = true
	callbacks := append([]func(context.Context){}, m.onOnline...)
	m.mu.Unlock()

	switch {
	case reachable && (!wasOnline && !first):
		m.logger.Network().Info("Origin connectivity restored")
		for _, fn := range callbacks {
			fn(ctx)
		}
	case !reachable && (wasOnline || first):
		m.logger.Network().Warn("Origin unreachable, entering offline mode")
	}
}
