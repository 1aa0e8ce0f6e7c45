// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/loganrossus/gossipd/pkg/logging"
)

// Config constructs a Node. It mirrors spec.md §6's configuration
// table directly.
type Config struct {
	// ID is the unique identifier for this node.
	ID string

	// Address is the local bind endpoint (host:port).
	Address string

	// Seeds pre-populate the table so the node has somewhere to send
	// its first heartbeat.
	Seeds []Seed

	// HeartbeatInterval is the period between successive
	// self-heartbeats.
	HeartbeatInterval time.Duration

	// HeartbeatSpread is the maximum fanout per send.
	HeartbeatSpread int

	// PollInterval is the Forwarder's non-blocking receive polling
	// quantum.
	PollInterval time.Duration

	// DecayFactor governs the forwarding probability exp(-DecayFactor
	// * count).
	DecayFactor float64

	Logger *slog.Logger

	// Rand drives the table's address shuffling and seeds the
	// forwarder's own coin-flip source. Nil gets a time-seeded
	// default; tests should supply a seeded source for determinism.
	Rand *rand.Rand

	// Channel overrides the transport, primarily for tests and
	// in-process simulation (see MemoryTransport). A nil Channel
	// binds a real UDPChannel at Address.
	Channel Channel
}

// Validate checks the configuration for errors, following the same
// "validate at construction" discipline as the rest of this
// repository's config loading.
func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("gossip: id must not be empty")
	}
	if c.Address == "" {
		return fmt.Errorf("gossip: address must not be empty")
	}
	if c.HeartbeatSpread < 1 {
		return fmt.Errorf("gossip: heartbeat spread must be >= 1, got %d", c.HeartbeatSpread)
	}
	if c.DecayFactor < 0 {
		return fmt.Errorf("gossip: decay factor must be >= 0, got %v", c.DecayFactor)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("gossip: heartbeat interval must be positive, got %v", c.HeartbeatInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("gossip: poll interval must be positive, got %v", c.PollInterval)
	}
	return nil
}

// Node is a single gossip participant: a Table, a Channel, and the
// Emitter/Forwarder loops that drive them. Construct with NewNode and
// start with Run.
type Node struct {
	id      string
	address string
	table   *Table
	channel Channel
	ownsCh  bool

	emitter   *Emitter
	forwarder *Forwarder
	alive     atomic.Bool

	logger *slog.Logger
}

// NewNode validates cfg, builds the table and channel, and wires the
// Emitter and Forwarder. A bind failure on the underlying UDP socket
// is a configuration failure: fatal, and returned here rather than
// deferred to Run.
func NewNode(cfg Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithNode(cfg.Logger, cfg.ID)

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	table := NewTable(rng)
	table.Bootstrap(cfg.ID, cfg.Address, cfg.Seeds)

	channel := cfg.Channel
	ownsCh := false
	if channel == nil {
		ch, err := NewUDPChannel(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("gossip: construct node %q: %w", cfg.ID, err)
		}
		channel = ch
		ownsCh = true
	}

	n := &Node{
		id:      cfg.ID,
		address: cfg.Address,
		table:   table,
		channel: channel,
		ownsCh:  ownsCh,
		logger:  logger,
	}
	n.alive.Store(true)

	n.emitter = NewEmitter(EmitterConfig{
		Interval: cfg.HeartbeatInterval,
		Spread:   cfg.HeartbeatSpread,
		Logger:   logging.WithComponent(logger, "emitter"),
	}, cfg.ID, cfg.Address, table, channel, &n.alive)

	n.forwarder = NewForwarder(ForwarderConfig{
		PollInterval: cfg.PollInterval,
		Spread:       cfg.HeartbeatSpread,
		DecayFactor:  cfg.DecayFactor,
		Logger:       logging.WithComponent(logger, "forwarder"),
		Rand:         rand.New(rand.NewSource(rng.Int63())),
	}, cfg.Address, table, channel, &n.alive)

	return n, nil
}

// Run starts the Emitter and Forwarder as two background goroutines
// and returns immediately. Both are stopped by canceling ctx.
func (n *Node) Run(ctx context.Context) {
	go n.emitter.Run(ctx)
	go n.forwarder.Run(ctx)
	n.logger.Info("node running", "address", n.address)
}

// SetAlive toggles the external liveness signal consulted by both
// loops. A fault-injection driver uses this to simulate a node going
// dark without tearing down its process.
func (n *Node) SetAlive(alive bool) {
	n.alive.Store(alive)
}

// Alive reports the current liveness signal.
func (n *Node) Alive() bool {
	return n.alive.Load()
}

// ID returns the node's identifier.
func (n *Node) ID() string {
	return n.id
}

// Address returns the node's bind address.
func (n *Node) Address() string {
	return n.address
}

// Table exposes the node's Membership Table, primarily for the
// convergence harness.
func (n *Node) Table() *Table {
	return n.table
}

// Close releases the node's socket, if it owns one.
func (n *Node) Close() error {
	if n.ownsCh {
		if closer, ok := n.channel.(*UDPChannel); ok {
			return closer.Close()
		}
	}
	return nil
}
