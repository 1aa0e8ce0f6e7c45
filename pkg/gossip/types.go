// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gossip implements the peer-to-peer gossip dissemination core:
// the heartbeat wire format, the membership table, the UDP datagram
// channel, and the emitter/forwarder loops that drive propagation.
package gossip

import (
	"errors"
	"time"
)

// Heartbeat is a self-attestation of liveness emitted by a node and
// disseminated by gossip. It is immutable once constructed and
// structurally equal to any other Heartbeat with the same fields.
type Heartbeat struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Timestamp uint64 `json:"timestamp"`
}

// NewerThan reports whether h is strictly fresher than other for the
// same originator. Ties are not newer.
func (h Heartbeat) NewerThan(other Heartbeat) bool {
	return h.Timestamp > other.Timestamp
}

// Now returns the current time as seconds since the Unix epoch, the
// timestamp unit used by Heartbeat.
func Now() uint64 {
	return uint64(time.Now().Unix())
}

// Seed is a peer address injected at bootstrap so a node has somewhere
// to direct its first heartbeat.
type Seed struct {
	ID      string
	Address string
}

// Sentinel errors surfaced by the datagram channel. The core logs and
// continues on all of these; none is fatal to the process.
var (
	// ErrWouldBlock is returned by Receive when no datagram is
	// currently pending.
	ErrWouldBlock = errors.New("gossip: would block")

	// ErrIO wraps a transport-level failure other than WouldBlock.
	ErrIO = errors.New("gossip: io error")

	// ErrDecode wraps a payload that was not a well-formed heartbeat.
	ErrDecode = errors.New("gossip: decode error")
)
