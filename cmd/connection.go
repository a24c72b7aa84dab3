// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openastro/mountctl/pkg/mount"
	"github.com/openastro/mountctl/pkg/synscan"
)

// exchangeTimeout converts the --timeout flag to a duration.
func exchangeTimeout() time.Duration {
	return time.Duration(cmdTimeout * float64(time.Second))
}

// OpenConnection opens either a UDP or serial connection based on flags
func OpenConnection() (synscan.Conn, string, error) {
	if serialPort != "" {
		conn, err := synscan.OpenSerial(serialPort, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", serialPort, baudRate), nil
	}

	conn, err := synscan.DialUDP(udpHost, udpPort, exchangeTimeout())
	if err != nil {
		return nil, "", err
	}
	return conn, fmt.Sprintf("UDP: %s:%d", udpHost, udpPort), nil
}

// OpenClient wraps the flag-selected connection in a protocol client
func OpenClient() (*synscan.Client, string, error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, "", err
	}
	client := synscan.NewClient(conn)
	client.SetTimeout(exchangeTimeout())
	return client, connInfo, nil
}

// OpenMount builds the motion facade over a fresh client and fetches axis
// parameters. When wait is true the fetch retries until it succeeds or ctx
// ends; otherwise one failed fetch is fatal.
func OpenMount(ctx context.Context, wait bool, opts ...mount.Option) (*mount.Mount, *synscan.Client, string, error) {
	client, connInfo, err := OpenClient()
	if err != nil {
		return nil, nil, "", err
	}

	if !wait {
		opts = append(opts, mount.WithMaxAttempts(1))
	}
	m := mount.New(client, opts...)
	if err := m.Init(ctx); err != nil {
		client.Close()
		return nil, nil, "", err
	}
	return m, client, connInfo, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(quit)
	}()
	return ctx, cancel
}

// parseAxis converts a positional AXIS argument.
func parseAxis(arg string) (synscan.Axis, error) {
	switch arg {
	case "1":
		return synscan.Axis1, nil
	case "2":
		return synscan.Axis2, nil
	}
	return 0, fmt.Errorf("invalid axis %q (use 1 or 2)", arg)
}
