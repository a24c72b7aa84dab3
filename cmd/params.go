// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"

	"github.com/openastro/mountctl/pkg/synscan"
	"github.com/spf13/cobra"
)

var paramsWait bool

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Read the fixed parameters of both axes",
	Long: `Query counts per revolution, timer frequency, step period and board
version for both axes.

These values are fixed per motor board and drive every unit conversion, so
a single failed query fails the whole command. With --wait the fetch is
retried until the controller answers, which covers adapters that need a few
seconds after power-on before they respond.`,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.Flags().BoolVar(&paramsWait, "wait", false, "Retry until the controller answers")
}

func runParams(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, client, connInfo, err := OpenMount(ctx, paramsWait)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("mountctl - Axis Parameters\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	for _, axis := range synscan.Axes {
		p, err := m.Params(axis)
		if err != nil {
			return err
		}
		fmt.Printf("Axis %d:\n", axis)
		fmt.Printf("  Counts per revolution: %d\n", p.CountsPerRev)
		fmt.Printf("  Timer frequency:       %d Hz\n", p.TimerFreq)
		fmt.Printf("  Step period:           %d\n", p.StepPeriod)
		fmt.Printf("  Board version:         %06X\n", p.BoardVersion)
		fmt.Printf("  Resolution:            %.1f counts/degree\n\n", p.DegreesToCounts(1))
	}
	return nil
}
