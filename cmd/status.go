// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"

	"github.com/openastro/mountctl/pkg/synscan"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current motion state of both axes",
	Long: `Poll position, goto target, step period and the status word of both
axes once and print them.

Positions are shown in counts and, when the axis parameters are readable,
in mechanical degrees. Use 'watch' for a continuously updating view.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, client, connInfo, err := OpenMount(ctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("mountctl - Mount Status\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	values := m.CurrentValues()
	if len(values) == 0 {
		return fmt.Errorf("controller did not answer the status poll")
	}

	for _, axis := range synscan.Axes {
		v, ok := values[axis]
		if !ok {
			continue
		}
		fmt.Printf("Axis %d:\n", axis)
		if p, err := m.Params(axis); err == nil {
			fmt.Printf("  Position:    %d counts (%.4f deg)\n", v.Position, p.CountsToDegrees(float64(v.Position)))
			fmt.Printf("  Goto target: %d counts (%.4f deg)\n", v.GotoTarget, p.CountsToDegrees(float64(v.GotoTarget)))
		} else {
			fmt.Printf("  Position:    %d counts\n", v.Position)
			fmt.Printf("  Goto target: %d counts\n", v.GotoTarget)
		}
		fmt.Printf("  Step period: %d\n", v.StepPeriod)
		fmt.Printf("  Status:      %s\n\n", v.Status)
	}
	return nil
}
