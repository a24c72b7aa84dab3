// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/openastro/mountctl/pkg/mount"
	"github.com/openastro/mountctl/pkg/synscan"
)

var watchIntervalSecs float64

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive TUI for monitoring and driving the mount",
	Long: `Monitor both axes in a terminal UI, with a command bar for driving
the mount without leaving the view.

Features:
  - Live position, target and status display for both axes
  - Poll statistics (rates, missed samples, motion edges)
  - Event log
  - Command bar: track, goto, stop, sync, init, raw

Press ':' to open the command bar, Enter to run, Esc to dismiss. 's' stops
both axes immediately. 'q' quits.

Supports both UDP and serial connections.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Float64Var(&watchIntervalSecs, "interval", 0.25, "Poll interval in seconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, client, connInfo, err := OpenMount(ctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	session := &mountSession{m: m, client: client}

	// Create TUI program with alt screen
	p := tea.NewProgram(initialWatchModel(session, connInfo), tea.WithAltScreen())

	// Poller goroutine feeds snapshots to the TUI
	done := make(chan struct{})
	go watchPollLoop(p, session, done)

	if _, err := p.Run(); err != nil {
		close(done)
		return fmt.Errorf("TUI error: %v", err)
	}
	close(done)
	return nil
}

// watchPollLoop polls motion state at the configured cadence and sends
// batched snapshots to the TUI.
func watchPollLoop(p *tea.Program, session *mountSession, done chan struct{}) {
	interval := time.Duration(watchIntervalSecs * float64(time.Second))
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.Send(watchDataMsg{values: session.poll()})
		}
	}
}

// mountSession serializes mount access shared between the poller and the
// command bar. The facade itself is not safe for concurrent use.
type mountSession struct {
	mu     sync.Mutex
	m      *mount.Mount
	client *synscan.Client
}

func (s *mountSession) poll() map[synscan.Axis]mount.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.CurrentValues()
}

func (s *mountSession) params(axis synscan.Axis) (mount.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Params(axis)
}

func (s *mountSession) stopAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.StopAll()
}

// execute runs one command-bar line and returns a summary for the event log.
func (s *mountSession) execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch fields[0] {
	case "track":
		if len(fields) != 3 {
			return "", fmt.Errorf("usage: track AXIS DEG_PER_SEC")
		}
		axis, rate, err := axisAndFloat(fields[1], fields[2])
		if err != nil {
			return "", err
		}
		if err := s.m.Track(axis, rate); err != nil {
			return "", err
		}
		return fmt.Sprintf("axis %d tracking at %+.5f deg/s", axis, rate), nil

	case "goto":
		if len(fields) != 3 && len(fields) != 4 {
			return "", fmt.Errorf("usage: goto AXIS DEGREES [RATE]")
		}
		axis, target, err := axisAndFloat(fields[1], fields[2])
		if err != nil {
			return "", err
		}
		rate := 5.0
		if len(fields) == 4 {
			rate, err = strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return "", fmt.Errorf("invalid rate %q", fields[3])
			}
		}
		if err := s.m.BeginGoto(axis, target, rate); err != nil {
			return "", err
		}
		return fmt.Sprintf("axis %d slewing to %.4f deg", axis, target), nil

	case "stop":
		if len(fields) == 1 {
			if err := s.m.StopAll(); err != nil {
				return "", err
			}
			return "both axes stopped", nil
		}
		axis, err := parseAxis(fields[1])
		if err != nil {
			return "", err
		}
		if err := s.m.StopMotion(axis); err != nil {
			return "", err
		}
		return fmt.Sprintf("axis %d stopped", axis), nil

	case "sync":
		if len(fields) != 3 {
			return "", fmt.Errorf("usage: sync AXIS DEGREES")
		}
		axis, deg, err := axisAndFloat(fields[1], fields[2])
		if err != nil {
			return "", err
		}
		if err := s.m.SetPositionDegrees(axis, deg); err != nil {
			return "", err
		}
		return fmt.Sprintf("axis %d synced to %.4f deg", axis, deg), nil

	case "init":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: init AXIS")
		}
		axis, err := parseAxis(fields[1])
		if err != nil {
			return "", err
		}
		if err := s.m.InitAxis(axis); err != nil {
			return "", err
		}
		return fmt.Sprintf("axis %d initialization done", axis), nil

	case "raw":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: raw FRAME")
		}
		reply, err := s.client.Raw(fields[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s -> %s", fields[1], reply), nil

	default:
		return "", fmt.Errorf("unknown command %q (track, goto, stop, sync, init, raw)", fields[0])
	}
}

func axisAndFloat(axisArg, valueArg string) (synscan.Axis, float64, error) {
	axis, err := parseAxis(axisArg)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseFloat(valueArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", valueArg)
	}
	return axis, v, nil
}
