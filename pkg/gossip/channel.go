// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// maxDatagramSize is the maximum expected heartbeat payload size.
// Receivers truncate silently past this; larger payloads are a
// protocol violation, not this package's concern.
const maxDatagramSize = 256

// Channel is the abstract datagram transport the core depends on. A
// deterministic in-memory implementation (MemoryChannel) can stand in
// for UDPChannel in tests.
type Channel interface {
	// Receive reads one pending heartbeat without blocking. It
	// returns ErrWouldBlock if none is currently available.
	Receive() (Heartbeat, error)

	// Send serializes h once and transmits it to every address.
	// A per-address failure does not stop the batch; Send reports an
	// error, wrapping the last failure, only if every address failed.
	Send(h Heartbeat, addresses []string) error
}

// UDPChannel wraps a single bound UDP endpoint, shared by the Emitter
// and Forwarder loops so that peers can reply to the apparent source
// address. Receive and Send are both serialized by an internal mutex
// — the reference concurrency model for this shared resource.
type UDPChannel struct {
	mu   sync.Mutex
	conn *net.UDPConn
}

// NewUDPChannel binds a non-blocking UDP endpoint at address
// (host:port). Bind failures (address in use, permission denied) are
// configuration failures: fatal, and propagated to the caller.
func NewUDPChannel(address string) (*UDPChannel, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("gossip: resolve bind address %q: %w", address, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("gossip: bind %q: %w", address, err)
	}

	return &UDPChannel{conn: conn}, nil
}

// LocalAddr returns the endpoint's bound address, useful when address
// was configured with a ":0" ephemeral port.
func (c *UDPChannel) LocalAddr() string {
	return c.conn.LocalAddr().String()
}

// Receive implements Channel. Non-blocking is emulated with a
// near-zero read deadline: a timeout maps to ErrWouldBlock rather than
// parking the caller, matching the non-blocking socket the spec
// describes.
func (c *UDPChannel) Receive() (Heartbeat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return Heartbeat{}, fmt.Errorf("%w: set read deadline: %v", ErrIO, err)
	}

	buf := make([]byte, maxDatagramSize)
	n, _, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return Heartbeat{}, ErrWouldBlock
		}
		return Heartbeat{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	var h Heartbeat
	if err := json.Unmarshal(buf[:n], &h); err != nil {
		return Heartbeat{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return h, nil
}

// Send implements Channel.
func (c *UDPChannel) Send(h Heartbeat, addresses []string) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("gossip: encode heartbeat: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	sent := 0
	for _, addr := range addresses {
		raddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := c.conn.WriteToUDP(data, raddr); err != nil {
			lastErr = err
			continue
		}
		sent++
	}

	if sent == 0 && lastErr != nil {
		return fmt.Errorf("%w: send to any address: %v", ErrIO, lastErr)
	}
	return nil
}

// Close releases the underlying socket.
func (c *UDPChannel) Close() error {
	return c.conn.Close()
}

var _ Channel = (*UDPChannel)(nil)
