// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryTransport is a deterministic in-process stand-in for UDP,
// addressed by the same host:port strings the real transport uses.
// It exists so tests and in-process simulations can exercise the
// Emitter/Forwarder loops without real sockets or real packet loss —
// spec.md's "dynamic dispatch" design note calls this out explicitly.
type MemoryTransport struct {
	mu       sync.Mutex
	channels map[string]*MemoryChannel
}

// NewMemoryTransport creates an empty transport registry.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{channels: make(map[string]*MemoryChannel)}
}

// NewChannel registers and returns a new MemoryChannel bound to
// address within this transport.
func (t *MemoryTransport) NewChannel(address string) *MemoryChannel {
	c := &MemoryChannel{
		address: address,
		inbox:   make(chan Heartbeat, 1024),
		t:       t,
	}
	t.mu.Lock()
	t.channels[address] = c
	t.mu.Unlock()
	return c
}

func (t *MemoryTransport) lookup(address string) (*MemoryChannel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.channels[address]
	return c, ok
}

// MemoryChannel implements Channel over an in-process buffered inbox.
// Encoding still round-trips through JSON so tests exercise the exact
// wire format described in spec.md §6, not a shortcut struct copy.
type MemoryChannel struct {
	address string
	inbox   chan Heartbeat
	t       *MemoryTransport
}

// Receive implements Channel.
func (c *MemoryChannel) Receive() (Heartbeat, error) {
	select {
	case h := <-c.inbox:
		return roundTrip(h)
	default:
		return Heartbeat{}, ErrWouldBlock
	}
}

// Send implements Channel.
func (c *MemoryChannel) Send(h Heartbeat, addresses []string) error {
	h, err := roundTrip(h)
	if err != nil {
		return err
	}

	var lastErr error
	sent := 0
	for _, addr := range addresses {
		dst, ok := c.t.lookup(addr)
		if !ok {
			lastErr = fmt.Errorf("gossip: no such address %q", addr)
			continue
		}
		select {
		case dst.inbox <- h:
			sent++
		default:
			lastErr = fmt.Errorf("gossip: inbox full for %q", addr)
		}
	}

	if sent == 0 && lastErr != nil {
		return fmt.Errorf("%w: %v", ErrIO, lastErr)
	}
	return nil
}

// roundTrip forces the heartbeat through the same JSON codec the real
// UDP channel uses, so decode-error and truncation semantics stay
// observable in tests built on MemoryTransport.
func roundTrip(h Heartbeat) (Heartbeat, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return Heartbeat{}, fmt.Errorf("gossip: encode heartbeat: %w", err)
	}
	if len(data) > maxDatagramSize {
		data = data[:maxDatagramSize]
	}
	var out Heartbeat
	if err := json.Unmarshal(data, &out); err != nil {
		return Heartbeat{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

var _ Channel = (*MemoryChannel)(nil)
