// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro
//
// mountctl - SynScan Mount Motor Controller CLI
//
// A CLI tool for driving, monitoring and simulating SynScan-compatible
// two-axis telescope mount controllers over UDP or serial.

package main

import (
	"os"

	"github.com/openastro/mountctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
