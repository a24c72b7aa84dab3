// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync AXIS DEGREES",
	Short: "Overwrite the position counter of an axis",
	Long: `Declare the current mechanical angle of an axis without moving it.

This is the alignment operation: point the mount at a known angle by hand
or by eye, then sync so the controller's position counter matches reality.
The motor must be stopped, controllers refuse position writes mid-slew.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	axis, err := parseAxis(args[0])
	if err != nil {
		return err
	}
	deg, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid angle %q: %v", args[1], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, client, _, err := OpenMount(ctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	before, err := m.PositionDegrees(axis)
	if err != nil {
		return err
	}
	if err := m.SetPositionDegrees(axis, deg); err != nil {
		return err
	}
	after, err := m.PositionDegrees(axis)
	if err != nil {
		return err
	}

	fmt.Printf("Axis %d synced: %.4f deg -> %.4f deg\n", axis, before, after)
	return nil
}
