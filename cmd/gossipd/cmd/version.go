// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loganrossus/gossipd/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gossipd version",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "gossipd version %s\n", version.String())
		return err
	},
}
