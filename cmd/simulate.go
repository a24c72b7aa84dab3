// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openastro/mountctl/pkg/synscan"
)

var (
	simListen        string
	simCPR           int
	simFreq          int
	simBoard         string
	simUninitialized bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a UDP mount simulator",
	Long: `Serve a simulated two-axis controller over UDP for development
without hardware. Point any other mountctl command at it:

  mountctl simulate &
  mountctl --host 127.0.0.1 status

The simulator answers the full command set and integrates commanded
motion, so goto and track behave like a (fast) real mount. With
--uninitialized it refuses motion until an init command arrives, which
is what a just-powered controller does.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simListen, "listen", fmt.Sprintf("127.0.0.1:%d", synscan.DefaultPort), "UDP listen address")
	simulateCmd.Flags().IntVar(&simCPR, "cpr", 0, "Counts per revolution (0: firmware default)")
	simulateCmd.Flags().IntVar(&simFreq, "freq", 0, "Timer frequency in Hz (0: firmware default)")
	simulateCmd.Flags().StringVar(&simBoard, "board", "", "Board version, e.g. 0x0210A1 (empty: firmware default)")
	simulateCmd.Flags().BoolVar(&simUninitialized, "uninitialized", false, "Start with both axes uninitialized")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := synscan.SimulatorConfig{
		CountsPerRev:       simCPR,
		TimerFreq:          simFreq,
		StartUninitialized: simUninitialized,
	}
	if simBoard != "" {
		v, err := strconv.ParseUint(simBoard, 0, 24)
		if err != nil {
			return fmt.Errorf("invalid board version %q: %w", simBoard, err)
		}
		cfg.BoardVersion = int(v)
	}

	pc, err := net.ListenPacket("udp", simListen)
	if err != nil {
		return err
	}
	defer pc.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sim := synscan.NewSimulator(cfg)

	fmt.Printf("Simulated mount on udp://%s\n", pc.LocalAddr())
	fmt.Println("Press Ctrl+C to stop")

	if err := sim.Run(ctx, pc); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("Simulator stopped")
	return nil
}
