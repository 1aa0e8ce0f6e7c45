// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// gossipd-harness spins up an in-process cluster of gossip nodes over
// an in-memory transport and reports convergence metrics, realizing
// the non-chart-rendering half of the propagation test harness.
package main

import (
	"os"

	"github.com/loganrossus/gossipd/cmd/gossipd-harness/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
