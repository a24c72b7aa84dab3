// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"os"
	"strconv"

	"github.com/openastro/mountctl/pkg/synscan"
	"github.com/spf13/cobra"
)

var (
	// UDP connection flags
	udpHost string
	udpPort int

	// Serial connection flags
	serialPort string
	baudRate   int

	// Exchange timeout in seconds
	cmdTimeout float64
)

var rootCmd = &cobra.Command{
	Use:   "mountctl",
	Short: "SynScan Mount Motor Controller CLI",
	Long: `mountctl - A CLI tool for driving SkyWatcher SynScan mount motor controllers.

Provides commands for querying axis parameters, slewing to positions, tracking
at custom rates, and monitoring controller health, plus an interactive watch
TUI, an HTTP/WebSocket bridge, and a protocol simulator for development
without hardware.

Connection modes:
  UDP:    --host 192.168.4.1 [--port 11880]  (SynScan Wi-Fi adapter)
  Serial: --serial /dev/ttyUSB0 [--baud 9600]

The UDP endpoint defaults to the adapter's access-point address and can also
be set through the SYNSCAN_UDP_IP and SYNSCAN_UDP_PORT environment variables.`,
	Version: "0.4.0",
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func init() {
	// UDP connection flags
	rootCmd.PersistentFlags().StringVar(&udpHost, "host", envOr("SYNSCAN_UDP_IP", synscan.DefaultHost), "Controller IP address (UDP mode)")
	rootCmd.PersistentFlags().IntVar(&udpPort, "port", envIntOr("SYNSCAN_UDP_PORT", synscan.DefaultPort), "Controller UDP port")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVar(&serialPort, "serial", "", "Serial port device (overrides UDP)")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", 9600, "Baud rate (serial only)")

	rootCmd.PersistentFlags().Float64Var(&cmdTimeout, "timeout", 2.0, "Request timeout in seconds")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
