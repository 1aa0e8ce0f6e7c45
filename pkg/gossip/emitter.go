// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/loganrossus/gossipd/pkg/metrics"
)

// EmitterConfig configures the Emitter loop.
type EmitterConfig struct {
	// Interval between successive self-heartbeats.
	Interval time.Duration

	// Spread is the maximum fanout per send.
	Spread int

	Logger *slog.Logger
}

// Emitter periodically builds a self-heartbeat, merges it into the
// table, and sends it to a random fanout of peers. It runs in its own
// goroutine for the lifetime of a Node.
type Emitter struct {
	cfg     EmitterConfig
	id      string
	address string
	table   *Table
	channel Channel
	alive   *atomic.Bool
	logger  *slog.Logger
}

// NewEmitter constructs an Emitter bound to a node's identity, table,
// and channel. alive is consulted at the top of every iteration; when
// false, the loop idles instead of emitting.
func NewEmitter(cfg EmitterConfig, id, address string, table *Table, channel Channel, alive *atomic.Bool) *Emitter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{cfg: cfg, id: id, address: address, table: table, channel: channel, alive: alive, logger: logger}
}

// Run drives the emitter loop until ctx is canceled.
func (e *Emitter) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if !e.alive.Load() {
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		e.tick()

		if !sleepCtx(ctx, e.cfg.Interval) {
			return
		}
	}
}

// tick runs a single emit iteration. Recoverable errors are logged and
// the iteration ends early; the outer loop still sleeps the normal
// interval before the next attempt.
func (e *Emitter) tick() {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordLoopPanic("emitter")
			e.logger.Error("emitter iteration panicked", "panic", r)
		}
	}()

	h := Heartbeat{ID: e.id, Address: e.address, Timestamp: Now()}

	e.table.Insert(h)

	exclude := map[string]struct{}{e.address: {}}
	addresses := e.table.SelectNRandomAddresses(e.cfg.Spread, exclude)
	if len(addresses) == 0 {
		e.logger.Debug("emitter has no fanout candidates, skipping round")
		return
	}

	if err := e.channel.Send(h, addresses); err != nil {
		metrics.RecordHeartbeatSendError()
		e.logger.Warn("emitter failed to send heartbeat", "error", err)
		return
	}

	metrics.RecordHeartbeatSent()
	metrics.SetTableSize(e.table.Len())
	e.logger.Debug("heartbeat emitted", "id", e.id, "timestamp", h.Timestamp, "fanout", len(addresses))
}

// sleepCtx sleeps for d, returning false early if ctx is canceled
// during the wait.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
