// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"errors"
	"fmt"

	"github.com/openastro/mountctl/pkg/synscan"
	"github.com/spf13/cobra"
)

var rawCmd = &cobra.Command{
	Use:   "raw FRAME...",
	Short: "Send hand-built protocol frames",
	Long: `Send raw command frames and print the replies, for poking at
firmware behavior the higher-level commands don't expose.

The leading ':' and the trailing carriage return are added when missing.
Replies are shown verbatim plus a best-effort decode of the payload.

Examples:
  mountctl raw :j1          Read the raw axis 1 position
  mountctl raw f1 f2        Read both status words
  mountctl raw ':G101'      Set axis 1 motion mode (quote to protect '!')`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	client, _, err := OpenClient()
	if err != nil {
		return err
	}
	defer client.Close()

	for _, frame := range args {
		fmt.Printf(">> %s\n", frame)
		reply, err := client.Raw(frame)
		if err != nil {
			fmt.Printf("<< (%v)\n", err)
			continue
		}
		fmt.Printf("<< %s\n", reply)
		describeReply(reply)
	}
	return nil
}

// describeReply prints a decoded interpretation of a reply when one exists.
func describeReply(reply []byte) {
	payload, err := synscan.ParseReply(reply)
	if err != nil {
		var ctrlErr *synscan.ControllerError
		if errors.As(err, &ctrlErr) {
			fmt.Printf("   error %d: %s\n", ctrlErr.Code, synscan.ControllerErrorName(ctrlErr.Code))
		}
		return
	}
	if len(payload) == synscan.ValueDigits {
		if v, err := synscan.DecodeValue(payload); err == nil {
			fmt.Printf("   value: %d (0x%06X), as position: %d\n", v, v, synscan.FromWirePosition(v))
		}
	}
	if len(payload) == synscan.StatusDigits {
		if status, err := synscan.DecodeStatus(payload); err == nil {
			fmt.Printf("   status: %s\n", status)
		}
	}
}
