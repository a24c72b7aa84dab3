// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

// Package mount is the motion-control facade over the SynScan protocol:
// cached axis parameters, unit conversion, and the goto and tracking
// sessions the tooling builds on.
//
// The error policy is deliberately uneven. Parameter fetches hard-fail and
// are retried only by Init; motion commands propagate errors unretried;
// CurrentValues degrades to an empty snapshot so poll loops ride out
// glitches. A Mount is not safe for concurrent use, callers serialize.
package mount

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/openastro/mountctl/pkg/synscan"
)

// ErrNotInitialized means Init has not completed, so no axis parameters are
// cached and conversions are impossible.
var ErrNotInitialized = errors.New("mount parameters not initialized")

// Defaults for the retry and poll cadences.
const (
	DefaultRetryInterval = 2 * time.Second
	DefaultPollInterval  = 2 * time.Second
)

// Transport is the request/reply surface the facade drives.
// *synscan.Client implements it; tests substitute fakes.
type Transport interface {
	SendCmd(cmd byte, axis synscan.Axis) (int, error)
	SendCmdValue(cmd byte, axis synscan.Axis, value, digits int) (int, error)
	Exchange(cmd byte, axis synscan.Axis, payload string) (string, error)
}

// Values is the per-axis motion snapshot from one poll.
type Values struct {
	GotoTarget int // counts, bias removed
	Position   int // counts, bias removed
	StepPeriod int
	Status     synscan.Status
}

// Mount drives a two-axis motor controller through a Transport.
type Mount struct {
	tr Transport

	retryInterval time.Duration
	maxAttempts   int // 0 retries until the context ends
	pollInterval  time.Duration
	sleep         func(time.Duration)

	params map[synscan.Axis]Params
}

// Option configures a Mount.
type Option func(*Mount)

// WithRetryInterval sets the pause between failed parameter fetches.
func WithRetryInterval(d time.Duration) Option {
	return func(m *Mount) {
		if d > 0 {
			m.retryInterval = d
		}
	}
}

// WithMaxAttempts caps Init fetch attempts. Zero keeps the unbounded
// behavior.
func WithMaxAttempts(n int) Option {
	return func(m *Mount) {
		if n >= 0 {
			m.maxAttempts = n
		}
	}
}

// WithPollInterval sets the cadence of goto progress polls.
func WithPollInterval(d time.Duration) Option {
	return func(m *Mount) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// New wraps a transport. Call Init before anything that needs axis
// parameters.
func New(tr Transport, opts ...Option) *Mount {
	m := &Mount{
		tr:            tr,
		retryInterval: DefaultRetryInterval,
		pollInterval:  DefaultPollInterval,
		sleep:         time.Sleep,
		params:        make(map[synscan.Axis]Params),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init fetches and caches the parameters of both axes, retrying failed
// fetches at the configured interval. The unbounded default mirrors
// controllers that only answer once their adapter settles; the context
// bounds the wait.
func (m *Mount) Init(ctx context.Context) error {
	attempts := 0
	for {
		params, err := m.FetchParams()
		if err == nil {
			m.params = params
			return nil
		}
		attempts++
		if m.maxAttempts > 0 && attempts >= m.maxAttempts {
			return fmt.Errorf("parameters unavailable after %d attempts: %w", attempts, err)
		}
		log.Printf("parameter fetch attempt %d failed: %v", attempts, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.sleep(m.retryInterval)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Initialized reports whether axis parameters are cached.
func (m *Mount) Initialized() bool {
	return len(m.params) > 0
}

// Params returns the cached parameters for axis.
func (m *Mount) Params(axis synscan.Axis) (Params, error) {
	p, ok := m.params[axis]
	if !ok {
		return Params{}, ErrNotInitialized
	}
	return p, nil
}

// FetchParams reads the fixed parameters of both axes in one pass. Any
// single failed query fails the whole fetch.
func (m *Mount) FetchParams() (map[synscan.Axis]Params, error) {
	out := make(map[synscan.Axis]Params, len(synscan.Axes))
	for _, axis := range synscan.Axes {
		p, err := m.fetchAxisParams(axis)
		if err != nil {
			return nil, fmt.Errorf("fetch parameters: %w", err)
		}
		out[axis] = p
	}
	return out, nil
}

func (m *Mount) fetchAxisParams(axis synscan.Axis) (Params, error) {
	var p Params
	queries := []struct {
		cmd byte
		dst *int
	}{
		{synscan.CmdGetCountsPerRev, &p.CountsPerRev},
		{synscan.CmdGetTimerFreq, &p.TimerFreq},
		{synscan.CmdGetStepPeriod, &p.StepPeriod},
		{synscan.CmdGetBoardVersion, &p.BoardVersion},
	}
	for _, q := range queries {
		v, err := m.tr.SendCmd(q.cmd, axis)
		if err != nil {
			return Params{}, err
		}
		*q.dst = v
	}
	if err := p.validate(); err != nil {
		return Params{}, fmt.Errorf("%s: %w", axis, err)
	}
	return p, nil
}

// CurrentValues polls the motion state of both axes. It degrades
// gracefully: any failure logs a warning and returns an empty snapshot so
// poll loops treat it as a missed sample.
func (m *Mount) CurrentValues() map[synscan.Axis]Values {
	out := make(map[synscan.Axis]Values, len(synscan.Axes))
	for _, axis := range synscan.Axes {
		v, err := m.currentAxisValues(axis)
		if err != nil {
			log.Printf("status poll failed: %v", err)
			return map[synscan.Axis]Values{}
		}
		out[axis] = v
	}
	return out
}

func (m *Mount) currentAxisValues(axis synscan.Axis) (Values, error) {
	var v Values

	target, err := m.tr.SendCmd(synscan.CmdGetGotoTarget, axis)
	if err != nil {
		return Values{}, err
	}
	v.GotoTarget = synscan.FromWirePosition(target)

	pos, err := m.tr.SendCmd(synscan.CmdGetPosition, axis)
	if err != nil {
		return Values{}, err
	}
	v.Position = synscan.FromWirePosition(pos)

	v.StepPeriod, err = m.tr.SendCmd(synscan.CmdGetStepPeriod, axis)
	if err != nil {
		return Values{}, err
	}

	payload, err := m.tr.Exchange(synscan.CmdGetStatus, axis, "")
	if err != nil {
		return Values{}, err
	}
	v.Status, err = synscan.DecodeStatus(payload)
	if err != nil {
		return Values{}, fmt.Errorf("%s: %w", axis, err)
	}
	return v, nil
}

// Position reads the current axis position in counts, bias removed.
func (m *Mount) Position(axis synscan.Axis) (int, error) {
	raw, err := m.tr.SendCmd(synscan.CmdGetPosition, axis)
	if err != nil {
		return 0, err
	}
	return synscan.FromWirePosition(raw), nil
}

// PositionDegrees reads the current axis position as a mechanical angle.
func (m *Mount) PositionDegrees(axis synscan.Axis) (float64, error) {
	p, err := m.Params(axis)
	if err != nil {
		return 0, err
	}
	counts, err := m.Position(axis)
	if err != nil {
		return 0, err
	}
	return p.CountsToDegrees(float64(counts)), nil
}

// SetMotionMode programs how the axis will move once started. Controllers
// refuse mode changes while the motor runs.
func (m *Mount) SetMotionMode(axis synscan.Axis, mode synscan.MotionMode) error {
	_, err := m.tr.SendCmdValue(synscan.CmdSetMotionMode, axis, mode.Encode(), synscan.ModeDigits)
	return err
}

// SetStepPeriod programs the raw step-timer preset.
func (m *Mount) SetStepPeriod(axis synscan.Axis, value int) error {
	_, err := m.tr.SendCmdValue(synscan.CmdSetStepPeriod, axis, value, synscan.ValueDigits)
	return err
}

// SetSpeed programs the tracking rate in degrees per second. The rate must
// be positive; direction comes from the motion mode.
func (m *Mount) SetSpeed(axis synscan.Axis, degPerSec float64) error {
	if degPerSec < 0 {
		return fmt.Errorf("tracking rate must be positive, direction is set by the motion mode")
	}
	p, err := m.Params(axis)
	if err != nil {
		return err
	}
	preset, err := p.TimerPreset(degPerSec)
	if err != nil {
		return err
	}
	return m.SetStepPeriod(axis, int(preset))
}

// SetGotoTarget programs the goto destination in counts.
func (m *Mount) SetGotoTarget(axis synscan.Axis, counts int) error {
	_, err := m.tr.SendCmdValue(synscan.CmdSetGotoTarget, axis, synscan.ToWirePosition(counts), synscan.ValueDigits)
	return err
}

// SetGotoTargetDegrees programs the goto destination as a mechanical angle.
func (m *Mount) SetGotoTargetDegrees(axis synscan.Axis, deg float64) error {
	p, err := m.Params(axis)
	if err != nil {
		return err
	}
	return m.SetGotoTarget(axis, int(p.DegreesToCounts(deg)))
}

// SetPosition overwrites the position counter, the sync operation after
// aligning the mount on a known angle.
func (m *Mount) SetPosition(axis synscan.Axis, counts int) error {
	_, err := m.tr.SendCmdValue(synscan.CmdSetPosition, axis, synscan.ToWirePosition(counts), synscan.ValueDigits)
	return err
}

// SetPositionDegrees overwrites the position counter with an angle.
func (m *Mount) SetPositionDegrees(axis synscan.Axis, deg float64) error {
	p, err := m.Params(axis)
	if err != nil {
		return err
	}
	return m.SetPosition(axis, int(p.DegreesToCounts(deg)))
}

// InitAxis marks axis initialization complete on the controller. Harmless
// when the adapter already initialized the motor board.
func (m *Mount) InitAxis(axis synscan.Axis) error {
	_, err := m.tr.Exchange(synscan.CmdInitDone, axis, "")
	return err
}

// StartMotion starts the programmed motion.
func (m *Mount) StartMotion(axis synscan.Axis) error {
	_, err := m.tr.SendCmd(synscan.CmdStartMotion, axis)
	return err
}

// StopMotion halts one axis.
func (m *Mount) StopMotion(axis synscan.Axis) error {
	_, err := m.tr.SendCmd(synscan.CmdStopMotion, axis)
	return err
}

// StopAll halts both axes, reporting the first failure after trying both.
func (m *Mount) StopAll() error {
	var firstErr error
	for _, axis := range synscan.Axes {
		if err := m.StopMotion(axis); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Track starts a continuous tracking slew at degPerSec. The sign selects
// direction: positive runs clockwise.
func (m *Mount) Track(axis synscan.Axis, degPerSec float64) error {
	if degPerSec == 0 {
		return ErrZeroSpeed
	}
	mode := synscan.MotionMode{Tracking: true, Clockwise: degPerSec > 0}
	if err := m.StopMotion(axis); err != nil {
		return err
	}
	if err := m.SetMotionMode(axis, mode); err != nil {
		return err
	}
	if err := m.SetSpeed(axis, math.Abs(degPerSec)); err != nil {
		return err
	}
	return m.StartMotion(axis)
}

// BeginGoto programs a goto slew to targetDegrees at rateDegPerSec and
// starts it without waiting for arrival. The controller picks the direction,
// so the goto mode is programmed without a direction bit.
func (m *Mount) BeginGoto(axis synscan.Axis, targetDegrees, rateDegPerSec float64) error {
	if err := m.StopMotion(axis); err != nil {
		return err
	}
	if err := m.SetMotionMode(axis, synscan.MotionMode{}); err != nil {
		return err
	}
	if err := m.SetSpeed(axis, rateDegPerSec); err != nil {
		return err
	}
	if err := m.SetGotoTargetDegrees(axis, targetDegrees); err != nil {
		return err
	}
	return m.StartMotion(axis)
}

// Goto drives the axis to targetDegrees at rateDegPerSec and blocks until
// the controller reports it stopped. onPoll, when non-nil, sees every
// progress snapshot.
func (m *Mount) Goto(ctx context.Context, axis synscan.Axis, targetDegrees, rateDegPerSec float64, onPoll func(Values)) error {
	if err := m.BeginGoto(axis, targetDegrees, rateDegPerSec); err != nil {
		return err
	}
	return m.WaitStopped(ctx, axis, onPoll)
}

// WaitStopped polls until the axis reports Stopped or the context ends.
// Missed samples are skipped, not fatal.
func (m *Mount) WaitStopped(ctx context.Context, axis synscan.Axis, onPoll func(Values)) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		values := m.CurrentValues()
		if v, ok := values[axis]; ok {
			if onPoll != nil {
				onPoll(v)
			}
			if v.Status.Stopped {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
