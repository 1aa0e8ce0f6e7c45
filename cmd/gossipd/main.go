// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// gossipd runs a single gossip node as a standalone daemon.
package main

import (
	"os"

	"github.com/loganrossus/gossipd/cmd/gossipd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
