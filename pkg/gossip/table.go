// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"math/rand"
	"sync"
	"time"

	"github.com/loganrossus/gossipd/pkg/metrics"
)

// Entry is a Membership Table record for one known peer.
type Entry struct {
	// Heartbeat is the freshest heartbeat seen for this id.
	Heartbeat Heartbeat

	// ReceivedCount is the number of times a heartbeat for this id
	// has been observed since Heartbeat.Timestamp was adopted.
	ReceivedCount uint64
}

// Table is the Membership Table: a mapping from node id to the
// freshest heartbeat seen for it, plus a redundancy counter. All
// access is serialized by an internal mutex; callers never see a
// torn read.
//
// The zero value is not usable; construct with NewTable.
type Table struct {
	mu      sync.Mutex
	entries map[string]Entry
	rng     *rand.Rand
}

// NewTable creates an empty Membership Table. rng, if non-nil, is used
// for address shuffling; pass a seeded *rand.Rand for deterministic
// tests. A nil rng gets a time-seeded default.
func NewTable(rng *rand.Rand) *Table {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Table{
		entries: make(map[string]Entry),
		rng:     rng,
	}
}

// Bootstrap seeds the table with the node's own entry and its
// configured seed peers, per the configured bootstrap discipline: a
// seed's address is known immediately but it carries ReceivedCount 0
// as a sentinel meaning "known address, no heartbeat yet" — it does
// not count toward liveness until a real heartbeat arrives.
func (t *Table) Bootstrap(selfID, selfAddress string, seeds []Seed) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := Now()
	for _, s := range seeds {
		t.entries[s.ID] = Entry{
			Heartbeat: Heartbeat{ID: s.ID, Address: s.Address, Timestamp: now},
		}
	}
	t.entries[selfID] = Entry{
		Heartbeat: Heartbeat{ID: selfID, Address: selfAddress, Timestamp: now},
	}
}

// Insert merges h into the table under key h.ID, applying the
// freshness-preserving merge rule:
//
//   - unknown id: adopt h, ReceivedCount becomes 1.
//   - h strictly newer than the current heartbeat: adopt h, reset
//     ReceivedCount to 1.
//   - otherwise: keep the current heartbeat, increment ReceivedCount.
//
// The returned count is the post-merge ReceivedCount, used by the
// Forwarder to decide whether to re-forward.
func (t *Table) Insert(h Heartbeat) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.entries[h.ID]
	if !ok || h.NewerThan(cur.Heartbeat) {
		t.entries[h.ID] = Entry{Heartbeat: h, ReceivedCount: 1}
		metrics.RecordTableInsert(true)
		return 1
	}

	cur.ReceivedCount++
	t.entries[h.ID] = cur
	metrics.RecordTableInsert(false)
	return cur.ReceivedCount
}

// SelectNRandomAddresses collects every known peer address, excludes
// the addresses in exclude, shuffles the remainder uniformly, and
// returns the first min(n, len) of them. An empty exclude set or a nil
// map are both valid; callers must treat an empty result as "skip this
// round".
func (t *Table) SelectNRandomAddresses(n int, exclude map[string]struct{}) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	addrs := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		if _, skip := exclude[e.Heartbeat.Address]; skip {
			continue
		}
		addrs = append(addrs, e.Heartbeat.Address)
	}

	t.rng.Shuffle(len(addrs), func(i, j int) {
		addrs[i], addrs[j] = addrs[j], addrs[i]
	})

	if n < len(addrs) {
		addrs = addrs[:n]
	}
	return addrs
}

// Snapshot returns a point-in-time copy of every entry, keyed by id.
// It briefly holds the table lock and is the only way the convergence
// harness is allowed to read a node's table.
func (t *Table) Snapshot() map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Entry, len(t.entries))
	for id, e := range t.entries {
		out[id] = e
	}
	return out
}

// Len returns the number of distinct ids currently known.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
