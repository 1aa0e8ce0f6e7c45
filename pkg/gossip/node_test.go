// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

func newTestNode(t *testing.T, transport *MemoryTransport, id, address string, seeds []Seed) *Node {
	t.Helper()

	n, err := NewNode(Config{
		ID:                id,
		Address:           address,
		Seeds:             seeds,
		HeartbeatInterval: 50 * time.Millisecond,
		HeartbeatSpread:   3,
		PollInterval:      5 * time.Millisecond,
		DecayFactor:       0.3,
		Rand:              rand.New(rand.NewSource(int64(len(id)) + time.Now().UnixNano())),
		Channel:           transport.NewChannel(address),
	})
	if err != nil {
		t.Fatalf("NewNode(%q) error = %v", id, err)
	}
	return n
}

// TestNode_TwoNodePropagation is scenario S1 from spec.md §8.
func TestNode_TwoNodePropagation(t *testing.T) {
	transport := NewMemoryTransport()

	a := newTestNode(t, transport, "a", "node-a:9001", []Seed{{ID: "b", Address: "node-b:9002"}})
	b := newTestNode(t, transport, "b", "node-b:9002", []Seed{{ID: "a", Address: "node-a:9001"}})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	a.Run(ctx)
	b.Run(ctx)

	deadline := time.Now().Add(1500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if a.Table().Snapshot()["b"].ReceivedCount > 0 && b.Table().Snapshot()["a"].ReceivedCount > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	snapA := a.Table().Snapshot()
	snapB := b.Table().Snapshot()

	if snapA["b"].ReceivedCount == 0 {
		t.Errorf("node a never observed a heartbeat from b: %+v", snapA["b"])
	}
	if snapB["a"].ReceivedCount == 0 {
		t.Errorf("node b never observed a heartbeat from a: %+v", snapB["a"])
	}

	now := Now()
	if snapA["b"].Heartbeat.Timestamp+2 < now {
		t.Errorf("node a's view of b is stale: %+v (now=%d)", snapA["b"], now)
	}
	if snapB["a"].Heartbeat.Timestamp+2 < now {
		t.Errorf("node b's view of a is stale: %+v (now=%d)", snapB["a"], now)
	}
}

// TestNode_NoSelfEcho is scenario S5: an Emitter never selects its own
// address for a fanout, across many trials.
func TestNode_NoSelfEcho(t *testing.T) {
	tbl := NewTable(rand.New(rand.NewSource(99)))
	tbl.Bootstrap("a", "node-a:9001", []Seed{{ID: "b", Address: "node-b:9002"}})

	for i := 0; i < 1000; i++ {
		addrs := tbl.SelectNRandomAddresses(1, map[string]struct{}{"node-a:9001": {}})
		for _, addr := range addrs {
			if addr == "node-a:9001" {
				t.Fatalf("trial %d: self address leaked into fanout selection", i)
			}
		}
	}
}

// TestNode_ForwardedHeartbeatNeverEchoesSenderOrSelf is invariant 4
// from spec.md §8, exercised against the Forwarder's exclude set.
func TestNode_ForwardedHeartbeatNeverEchoesSenderOrSelf(t *testing.T) {
	tbl := NewTable(rand.New(rand.NewSource(1)))
	tbl.Bootstrap("self", "self-addr", []Seed{
		{ID: "sender", Address: "sender-addr"},
		{ID: "other", Address: "other-addr"},
	})

	exclude := map[string]struct{}{"self-addr": {}, "sender-addr": {}}
	for i := 0; i < 500; i++ {
		addrs := tbl.SelectNRandomAddresses(2, exclude)
		for _, addr := range addrs {
			if addr == "self-addr" || addr == "sender-addr" {
				t.Fatalf("trial %d: forwarding destination %q should have been excluded", i, addr)
			}
		}
	}
}
