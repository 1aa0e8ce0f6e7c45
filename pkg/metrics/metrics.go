// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics provides Prometheus metrics for gossipd observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all gossipd metrics.
const namespace = "gossipd"

// Emitter metrics
var (
	// HeartbeatsSentTotal counts self heartbeats emitted.
	HeartbeatsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_sent_total",
			Help:      "Total number of self heartbeats emitted",
		},
	)

	// HeartbeatSendErrorsTotal counts failed heartbeat sends.
	HeartbeatSendErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_send_errors_total",
			Help:      "Total number of errors sending self heartbeats to peers",
		},
	)
)

// Forwarder metrics
var (
	// HeartbeatsReceivedTotal counts heartbeats received from peers, by
	// whether the receive decoded cleanly.
	HeartbeatsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_received_total",
			Help:      "Total number of heartbeats received from peers",
		},
		[]string{"result"}, // "ok" or "decode_error"
	)

	// ForwardDecisionsTotal counts the forward/suppress outcome of the
	// decaying-probability gate for each received heartbeat.
	ForwardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_decisions_total",
			Help:      "Total number of forward-probability decisions by outcome",
		},
		[]string{"outcome"}, // "forwarded" or "suppressed"
	)

	// HeartbeatsForwardedTotal counts heartbeats re-sent to peers.
	HeartbeatsForwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_forwarded_total",
			Help:      "Total number of heartbeats forwarded to other peers",
		},
	)

	// ForwardSendErrorsTotal counts failed forward sends.
	ForwardSendErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_send_errors_total",
			Help:      "Total number of errors forwarding heartbeats to peers",
		},
	)
)

// Table metrics
var (
	// TableSize tracks the current number of distinct entries in the
	// membership table.
	TableSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_size",
			Help:      "Current number of distinct entries in the membership table",
		},
	)

	// TableInsertsTotal counts table merges, by whether the incoming
	// heartbeat was newer than the entry already held.
	TableInsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_inserts_total",
			Help:      "Total number of membership table merge attempts",
		},
		[]string{"result"}, // "applied" or "stale"
	)
)

// Loop health metrics
var (
	// LoopPanicsTotal counts recovered panics in the emitter/forwarder
	// loops, by loop name.
	LoopPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_panics_recovered_total",
			Help:      "Total number of panics recovered in gossip loop iterations",
		},
		[]string{"loop"}, // "emitter" or "forwarder"
	)

	// NodeAlive reports the current liveness toggle: 1 if alive, 0 if
	// deliberately signaling death.
	NodeAlive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_alive",
			Help:      "1 if this node is currently signaling alive, 0 otherwise",
		},
	)
)

// Application metrics
var (
	// AppInfo provides build information as labels.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_info",
			Help:      "gossipd application information",
		},
		[]string{"version", "commit", "build_date"},
	)

	// ConfigLoadTimestamp tracks when config was last loaded.
	ConfigLoadTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_load_timestamp_seconds",
			Help:      "Unix timestamp of last configuration load",
		},
	)
)

// RecordHeartbeatSent records a successfully emitted self heartbeat.
func RecordHeartbeatSent() {
	HeartbeatsSentTotal.Inc()
}

// RecordHeartbeatSendError records a failed heartbeat send.
func RecordHeartbeatSendError() {
	HeartbeatSendErrorsTotal.Inc()
}

// RecordHeartbeatReceived records a heartbeat receive outcome.
func RecordHeartbeatReceived(decodeOK bool) {
	if decodeOK {
		HeartbeatsReceivedTotal.WithLabelValues("ok").Inc()
		return
	}
	HeartbeatsReceivedTotal.WithLabelValues("decode_error").Inc()
}

// RecordForwardDecision records the outcome of the decaying-probability
// forward gate.
func RecordForwardDecision(forwarded bool) {
	if forwarded {
		ForwardDecisionsTotal.WithLabelValues("forwarded").Inc()
		HeartbeatsForwardedTotal.Inc()
		return
	}
	ForwardDecisionsTotal.WithLabelValues("suppressed").Inc()
}

// RecordForwardSendError records a failed forward send.
func RecordForwardSendError() {
	ForwardSendErrorsTotal.Inc()
}

// SetTableSize sets the current membership table size.
func SetTableSize(n int) {
	TableSize.Set(float64(n))
}

// RecordTableInsert records a table merge outcome.
func RecordTableInsert(applied bool) {
	if applied {
		TableInsertsTotal.WithLabelValues("applied").Inc()
		return
	}
	TableInsertsTotal.WithLabelValues("stale").Inc()
}

// RecordLoopPanic records a recovered panic in a gossip loop.
func RecordLoopPanic(loop string) {
	LoopPanicsTotal.WithLabelValues(loop).Inc()
}

// SetNodeAlive records the current liveness toggle.
func SetNodeAlive(alive bool) {
	if alive {
		NodeAlive.Set(1)
		return
	}
	NodeAlive.Set(0)
}

// SetAppInfo sets the application info metric.
func SetAppInfo(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

// SetConfigLoadTimestamp records when configuration was last loaded.
func SetConfigLoadTimestamp(unixSeconds float64) {
	ConfigLoadTimestamp.Set(unixSeconds)
}
