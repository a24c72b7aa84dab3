// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/openastro/mountctl/pkg/mount"
	"github.com/spf13/cobra"
)

var gotoRate float64

var gotoCmd = &cobra.Command{
	Use:   "goto AXIS DEGREES",
	Short: "Slew an axis to a mechanical angle and wait for arrival",
	Long: `Program a goto slew and block until the controller reports the axis
stopped.

The controller picks the direction of travel toward the target; the rate
sets how fast it gets there. Progress is printed on every poll. Ctrl+C
aborts the wait and stops the axis.

Examples:
  mountctl goto 1 90        Slew axis 1 to 90 degrees
  mountctl goto 2 -15 --rate 2.5`,
	Args: cobra.ExactArgs(2),
	RunE: runGoto,
}

func init() {
	rootCmd.AddCommand(gotoCmd)
	gotoCmd.Flags().Float64Var(&gotoRate, "rate", 5.0, "Slew rate in degrees per second")
}

func runGoto(cmd *cobra.Command, args []string) error {
	axis, err := parseAxis(args[0])
	if err != nil {
		return err
	}
	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid target %q: %v", args[1], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, client, connInfo, err := OpenMount(ctx, false, mount.WithPollInterval(500*time.Millisecond))
	if err != nil {
		return err
	}
	defer client.Close()

	p, err := m.Params(axis)
	if err != nil {
		return err
	}

	fmt.Printf("mountctl - Goto\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Slewing axis %d to %.4f deg at %.2f deg/s\n\n", axis, target, gotoRate)

	start := time.Now()
	err = m.Goto(ctx, axis, target, gotoRate, func(v mount.Values) {
		fmt.Printf("  [%5.1fs] %10d counts (%9.4f deg)\n",
			time.Since(start).Seconds(), v.Position, p.CountsToDegrees(float64(v.Position)))
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Leave the mount parked, not drifting.
			if stopErr := m.StopMotion(axis); stopErr != nil {
				return fmt.Errorf("interrupted, and stopping the axis failed: %v", stopErr)
			}
			fmt.Printf("\nInterrupted, axis %d stopped\n", axis)
			return nil
		}
		return err
	}

	deg, err := m.PositionDegrees(axis)
	if err != nil {
		return err
	}
	fmt.Printf("\nArrived at %.4f deg in %.1f seconds\n", deg, time.Since(start).Seconds())
	return nil
}
