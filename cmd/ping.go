// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/openastro/mountctl/pkg/synscan"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connectivity by querying the motor board version",
	Long: `Send a board-version query to the controller and wait for a reply.

Any reply, including a controller error code, proves the link and the
firmware are alive. Silence until the timeout means the controller is
unreachable or asleep.

Exit codes:
  0 - Controller replied
  1 - No reply before the timeout
  2 - Connection or protocol error

Useful for checking the Wi-Fi adapter before handing the mount to a
pointing stack.`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	client, connInfo, err := OpenClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer client.Close()

	fmt.Printf("mountctl - Controller Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %.1f seconds\n", cmdTimeout)
	fmt.Printf("Querying motor board version...\n\n")

	version, err := client.SendCmd(synscan.CmdGetBoardVersion, synscan.Axis1)
	if err != nil {
		if errors.Is(err, synscan.ErrNoReply) {
			fmt.Fprintf(os.Stderr, "TIMEOUT: no reply within %.1f seconds\n", cmdTimeout)
			os.Exit(1)
		}
		var ctrlErr *synscan.ControllerError
		if errors.As(err, &ctrlErr) {
			// The firmware answered, the link works.
			fmt.Printf("SUCCESS: controller replied with error %d (%s)\n",
				ctrlErr.Code, synscan.ControllerErrorName(ctrlErr.Code))
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Exchange error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("SUCCESS: controller replied\n")
	fmt.Printf("  Board version: %06X\n", version)
	os.Exit(0)
	return nil
}
