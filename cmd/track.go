// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track AXIS DEG_PER_SEC",
	Short: "Start tracking an axis at a constant rate",
	Long: `Start a continuous tracking slew and return, leaving the motor
running.

The sign of the rate selects the direction: positive is clockwise. The
motor keeps the rate until 'stop' or another motion command. Sidereal rate
is about 0.00418 deg/s.

Examples:
  mountctl track 1 0.00418    Sidereal tracking on axis 1
  mountctl track 2 -0.5       Slow counterclockwise slew on axis 2`,
	Args: cobra.ExactArgs(2),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	axis, err := parseAxis(args[0])
	if err != nil {
		return err
	}
	rate, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %v", args[1], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, client, _, err := OpenMount(ctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := m.Track(axis, rate); err != nil {
		return err
	}

	direction := "clockwise"
	if rate < 0 {
		direction = "counterclockwise"
	}
	fmt.Printf("Axis %d tracking %s at %.5f deg/s\n", axis, direction, math.Abs(rate))
	fmt.Printf("Run 'mountctl stop %d' to halt it\n", axis)
	return nil
}
