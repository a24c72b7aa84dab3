// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"

	"github.com/openastro/mountctl/pkg/mount"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop [AXIS]",
	Short: "Stop one axis, or both",
	Long: `Send a stop command. With an axis argument only that axis halts;
without one both axes are stopped, and a failure on the first axis does not
skip the second.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	client, _, err := OpenClient()
	if err != nil {
		return err
	}
	defer client.Close()

	// No parameters needed to stop, skip the Init round trips.
	m := mount.New(client)

	if len(args) == 1 {
		axis, err := parseAxis(args[0])
		if err != nil {
			return err
		}
		if err := m.StopMotion(axis); err != nil {
			return err
		}
		fmt.Printf("Axis %d stopped\n", axis)
		return nil
	}

	if err := m.StopAll(); err != nil {
		return err
	}
	fmt.Printf("Both axes stopped\n")
	return nil
}
