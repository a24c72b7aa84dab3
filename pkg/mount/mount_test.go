// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package mount

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openastro/mountctl/pkg/synscan"
)

// ============================================================
// Fake Transport
// ============================================================

// fakeTransport answers from tables keyed by command letter + axis digit
// ("a1", "f2", ...) and records every call for order assertions.
type fakeTransport struct {
	values   map[string]int      // SendCmd replies
	payloads map[string]string   // Exchange replies
	seq      map[string][]string // Exchange replies consumed first, in order
	written  map[string]int      // last SendCmdValue value per key
	fail     map[string]error    // per-key forced failures
	failAll  int                 // upcoming calls to fail, regardless of key
	calls    []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		values:   make(map[string]int),
		payloads: make(map[string]string),
		seq:      make(map[string][]string),
		written:  make(map[string]int),
		fail:     make(map[string]error),
	}
}

func tkey(cmd byte, axis synscan.Axis) string {
	return fmt.Sprintf("%c%d", cmd, axis)
}

func (f *fakeTransport) check(k string) error {
	if f.failAll > 0 {
		f.failAll--
		return fmt.Errorf("%s: %w", k, synscan.ErrNoReply)
	}
	return f.fail[k]
}

func (f *fakeTransport) SendCmd(cmd byte, axis synscan.Axis) (int, error) {
	k := tkey(cmd, axis)
	f.calls = append(f.calls, k)
	if err := f.check(k); err != nil {
		return 0, err
	}
	return f.values[k], nil
}

func (f *fakeTransport) SendCmdValue(cmd byte, axis synscan.Axis, value, digits int) (int, error) {
	k := tkey(cmd, axis)
	f.calls = append(f.calls, k)
	if err := f.check(k); err != nil {
		return 0, err
	}
	f.written[k] = value
	return 0, nil
}

func (f *fakeTransport) Exchange(cmd byte, axis synscan.Axis, payload string) (string, error) {
	k := tkey(cmd, axis)
	f.calls = append(f.calls, k)
	if err := f.check(k); err != nil {
		return "", err
	}
	if q := f.seq[k]; len(q) > 0 {
		f.seq[k] = q[1:]
		return q[0], nil
	}
	return f.payloads[k], nil
}

// seedParams stocks the fake with the testParams values for both axes and
// idle status words.
func seedParams(f *fakeTransport) {
	for _, axis := range synscan.Axes {
		f.values[tkey(synscan.CmdGetCountsPerRev, axis)] = testParams.CountsPerRev
		f.values[tkey(synscan.CmdGetTimerFreq, axis)] = testParams.TimerFreq
		f.values[tkey(synscan.CmdGetStepPeriod, axis)] = testParams.StepPeriod
		f.values[tkey(synscan.CmdGetBoardVersion, axis)] = testParams.BoardVersion
		f.payloads[tkey(synscan.CmdGetStatus, axis)] = "000"
	}
}

func initMount(t *testing.T, f *fakeTransport, opts ...Option) *Mount {
	t.Helper()
	m := New(f, opts...)
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return m
}

// ============================================================
// Initialization Tests
// ============================================================

func TestMount_InitCachesParams(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	m := initMount(t, f)

	if !m.Initialized() {
		t.Fatal("Initialized() = false after a successful Init")
	}
	for _, axis := range synscan.Axes {
		p, err := m.Params(axis)
		if err != nil {
			t.Fatalf("Params(%s) error = %v", axis, err)
		}
		if p != testParams {
			t.Errorf("Params(%s) = %+v, want %+v", axis, p, testParams)
		}
	}
}

func TestMount_ParamsBeforeInit(t *testing.T) {
	m := New(newFakeTransport())
	if _, err := m.Params(synscan.Axis1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Params() before Init error = %v, want ErrNotInitialized", err)
	}
	if m.Initialized() {
		t.Error("Initialized() = true before Init")
	}
}

func TestMount_FetchParamsHardFails(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.fail[tkey(synscan.CmdGetTimerFreq, synscan.Axis2)] = fmt.Errorf("b2: %w", synscan.ErrNoReply)

	m := New(f)
	params, err := m.FetchParams()
	if err == nil {
		t.Fatal("FetchParams() with one failing query should fail")
	}
	if !errors.Is(err, synscan.ErrNoReply) {
		t.Errorf("FetchParams() error = %v, want it to wrap ErrNoReply", err)
	}
	if params != nil {
		t.Errorf("FetchParams() = %v, want nil on failure", params)
	}
}

func TestMount_FetchParamsRejectsBadValues(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.values[tkey(synscan.CmdGetCountsPerRev, synscan.Axis1)] = 0

	if _, err := New(f).FetchParams(); err == nil {
		t.Error("FetchParams() should reject a zero counts-per-revolution")
	}
}

func TestMount_InitRetriesWithBackoff(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.failAll = 2 // first two attempts die on their first query

	var slept []time.Duration
	m := New(f, WithRetryInterval(2*time.Second))
	m.sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(slept) != 2 {
		t.Fatalf("Init() slept %d times, want 2", len(slept))
	}
	for _, d := range slept {
		if d != 2*time.Second {
			t.Errorf("Init() slept %v, want 2s", d)
		}
	}
}

func TestMount_InitAttemptCap(t *testing.T) {
	f := newFakeTransport()
	f.failAll = 1000

	var slept int
	m := New(f, WithMaxAttempts(3))
	m.sleep = func(time.Duration) { slept++ }

	err := m.Init(context.Background())
	if err == nil {
		t.Fatal("Init() with a permanent failure and an attempt cap should fail")
	}
	if !errors.Is(err, synscan.ErrNoReply) {
		t.Errorf("Init() error = %v, want it to wrap the fetch failure", err)
	}
	if slept != 2 {
		t.Errorf("Init() slept %d times before giving up, want 2", slept)
	}
}

func TestMount_InitHonorsContext(t *testing.T) {
	f := newFakeTransport()
	f.failAll = 1000

	ctx, cancel := context.WithCancel(context.Background())
	m := New(f)
	m.sleep = func(time.Duration) { cancel() }

	if err := m.Init(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Init() after cancel = %v, want context.Canceled", err)
	}
}

// ============================================================
// Polling Tests
// ============================================================

func TestMount_CurrentValues(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.values[tkey(synscan.CmdGetGotoTarget, synscan.Axis1)] = synscan.ToWirePosition(100)
	f.values[tkey(synscan.CmdGetPosition, synscan.Axis1)] = synscan.ToWirePosition(200)
	f.values[tkey(synscan.CmdGetStepPeriod, synscan.Axis1)] = 5000
	f.values[tkey(synscan.CmdGetGotoTarget, synscan.Axis2)] = synscan.ToWirePosition(-300)
	f.values[tkey(synscan.CmdGetPosition, synscan.Axis2)] = synscan.ToWirePosition(-400)
	f.payloads[tkey(synscan.CmdGetStatus, synscan.Axis2)] = "110"

	m := New(f)
	values := m.CurrentValues()
	if len(values) != 2 {
		t.Fatalf("CurrentValues() returned %d axes, want 2", len(values))
	}

	want1 := Values{
		GotoTarget: 100,
		Position:   200,
		StepPeriod: 5000,
		Status:     synscan.Status{Stopped: true, InitDone: true},
	}
	if values[synscan.Axis1] != want1 {
		t.Errorf("axis 1 values = %+v, want %+v", values[synscan.Axis1], want1)
	}

	v2 := values[synscan.Axis2]
	if v2.GotoTarget != -300 || v2.Position != -400 {
		t.Errorf("axis 2 bias correction wrong: %+v", v2)
	}
	if v2.Status.Stopped || !v2.Status.Tracking {
		t.Errorf("axis 2 status = %+v, want running in tracking mode", v2.Status)
	}
}

func TestMount_CurrentValuesSoftFail(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.fail[tkey(synscan.CmdGetPosition, synscan.Axis2)] = fmt.Errorf("j2: %w", synscan.ErrNoReply)

	values := New(f).CurrentValues()
	if len(values) != 0 {
		t.Errorf("CurrentValues() with a failing query = %v, want empty", values)
	}
}

func TestMount_CurrentValuesSoftFailOnBadStatus(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.payloads[tkey(synscan.CmdGetStatus, synscan.Axis1)] = "ZZZ"

	values := New(f).CurrentValues()
	if len(values) != 0 {
		t.Errorf("CurrentValues() with an undecodable status = %v, want empty", values)
	}
}

func TestMount_PositionDegrees(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.values[tkey(synscan.CmdGetPosition, synscan.Axis1)] = synscan.ToWirePosition(180000)

	m := initMount(t, f)
	deg, err := m.PositionDegrees(synscan.Axis1)
	if err != nil {
		t.Fatalf("PositionDegrees() error = %v", err)
	}
	if deg != 180 {
		t.Errorf("PositionDegrees() = %v, want 180", deg)
	}
}

// ============================================================
// Motion Command Tests
// ============================================================

func TestMount_SetSpeedProgramsPreset(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	m := initMount(t, f)

	if err := m.SetSpeed(synscan.Axis1, 1); err != nil {
		t.Fatalf("SetSpeed(1) error = %v", err)
	}
	if got := f.written[tkey(synscan.CmdSetStepPeriod, synscan.Axis1)]; got != 10 {
		t.Errorf("step period for 1 deg/s = %d, want 10", got)
	}

	// 3 deg/s -> preset 10/3, truncated
	if err := m.SetSpeed(synscan.Axis1, 3); err != nil {
		t.Fatalf("SetSpeed(3) error = %v", err)
	}
	if got := f.written[tkey(synscan.CmdSetStepPeriod, synscan.Axis1)]; got != 3 {
		t.Errorf("step period for 3 deg/s = %d, want 3 (truncated)", got)
	}
}

func TestMount_SetSpeedRejectsBadRates(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	m := initMount(t, f)

	if err := m.SetSpeed(synscan.Axis1, 0); !errors.Is(err, ErrZeroSpeed) {
		t.Errorf("SetSpeed(0) error = %v, want ErrZeroSpeed", err)
	}
	if err := m.SetSpeed(synscan.Axis1, -1); err == nil {
		t.Error("SetSpeed(-1) should fail, direction belongs to the motion mode")
	}
}

func TestMount_TargetAndPositionBias(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	m := initMount(t, f)

	if err := m.SetGotoTarget(synscan.Axis1, 90000); err != nil {
		t.Fatalf("SetGotoTarget() error = %v", err)
	}
	if got := f.written[tkey(synscan.CmdSetGotoTarget, synscan.Axis1)]; got != synscan.ToWirePosition(90000) {
		t.Errorf("goto target on the wire = 0x%X, want 0x%X", got, synscan.ToWirePosition(90000))
	}

	if err := m.SetPosition(synscan.Axis2, -100); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if got := f.written[tkey(synscan.CmdSetPosition, synscan.Axis2)]; got != synscan.ToWirePosition(-100) {
		t.Errorf("position on the wire = 0x%X, want 0x%X", got, synscan.ToWirePosition(-100))
	}

	if err := m.SetPositionDegrees(synscan.Axis1, -0.5); err != nil {
		t.Fatalf("SetPositionDegrees() error = %v", err)
	}
	if got := f.written[tkey(synscan.CmdSetPosition, synscan.Axis1)]; got != synscan.ToWirePosition(-500) {
		t.Errorf("position for -0.5 deg = 0x%X, want 0x%X", got, synscan.ToWirePosition(-500))
	}
}

func TestMount_InitAxis(t *testing.T) {
	f := newFakeTransport()
	m := New(f)

	if err := m.InitAxis(synscan.Axis1); err != nil {
		t.Fatalf("InitAxis() error = %v", err)
	}
	if f.calls[len(f.calls)-1] != "F1" {
		t.Errorf("InitAxis() sent %v, want F1", f.calls)
	}
}

func TestMount_StopAll(t *testing.T) {
	f := newFakeTransport()
	f.fail[tkey(synscan.CmdStopMotion, synscan.Axis1)] = fmt.Errorf("K1: %w", synscan.ErrNoReply)

	err := New(f).StopAll()
	if !errors.Is(err, synscan.ErrNoReply) {
		t.Errorf("StopAll() error = %v, want the first failure", err)
	}
	// both axes must still have been told to stop
	want := []string{"K1", "K2"}
	if len(f.calls) != 2 || f.calls[0] != want[0] || f.calls[1] != want[1] {
		t.Errorf("StopAll() calls = %v, want %v", f.calls, want)
	}
}

// ============================================================
// Session Tests
// ============================================================

func TestMount_Track(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	m := initMount(t, f)
	mark := len(f.calls)

	if err := m.Track(synscan.Axis1, -0.5); err != nil {
		t.Fatalf("Track(-0.5) error = %v", err)
	}

	wantCalls := []string{"K1", "G1", "I1", "J1"}
	got := f.calls[mark:]
	if len(got) != len(wantCalls) {
		t.Fatalf("Track() calls = %v, want %v", got, wantCalls)
	}
	for i := range wantCalls {
		if got[i] != wantCalls[i] {
			t.Fatalf("Track() calls = %v, want %v", got, wantCalls)
		}
	}

	wantMode := synscan.MotionMode{Tracking: true}.Encode() // ccw, slow
	if got := f.written[tkey(synscan.CmdSetMotionMode, synscan.Axis1)]; got != wantMode {
		t.Errorf("tracking mode byte = 0x%02X, want 0x%02X", got, wantMode)
	}
	if got := f.written[tkey(synscan.CmdSetStepPeriod, synscan.Axis1)]; got != 20 {
		t.Errorf("step period for 0.5 deg/s = %d, want 20", got)
	}

	if err := m.Track(synscan.Axis1, 2); err != nil {
		t.Fatalf("Track(2) error = %v", err)
	}
	wantMode = synscan.MotionMode{Tracking: true, Clockwise: true}.Encode()
	if got := f.written[tkey(synscan.CmdSetMotionMode, synscan.Axis1)]; got != wantMode {
		t.Errorf("clockwise mode byte = 0x%02X, want 0x%02X", got, wantMode)
	}
}

func TestMount_TrackRejectsZeroRate(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	m := initMount(t, f)

	if err := m.Track(synscan.Axis1, 0); !errors.Is(err, ErrZeroSpeed) {
		t.Errorf("Track(0) error = %v, want ErrZeroSpeed", err)
	}
}

func TestMount_Goto(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	// axis 2 runs for two polls, then reports stopped
	f.seq[tkey(synscan.CmdGetStatus, synscan.Axis2)] = []string{"010", "010", "000"}

	m := initMount(t, f, WithPollInterval(time.Millisecond))
	mark := len(f.calls)

	var polls []Values
	err := m.Goto(context.Background(), synscan.Axis2, 90, 5, func(v Values) {
		polls = append(polls, v)
	})
	if err != nil {
		t.Fatalf("Goto() error = %v", err)
	}

	wantPrefix := []string{"K2", "G2", "I2", "S2", "J2"}
	got := f.calls[mark:]
	for i, want := range wantPrefix {
		if i >= len(got) || got[i] != want {
			t.Fatalf("Goto() command sequence = %v, want prefix %v", got, wantPrefix)
		}
	}

	if gotMode := f.written[tkey(synscan.CmdSetMotionMode, synscan.Axis2)]; gotMode != 0x00 {
		t.Errorf("goto mode byte = 0x%02X, want 0x00", gotMode)
	}
	if gotPreset := f.written[tkey(synscan.CmdSetStepPeriod, synscan.Axis2)]; gotPreset != 2 {
		t.Errorf("step period for 5 deg/s = %d, want 2", gotPreset)
	}
	if gotTarget := f.written[tkey(synscan.CmdSetGotoTarget, synscan.Axis2)]; gotTarget != synscan.ToWirePosition(90000) {
		t.Errorf("goto target on the wire = 0x%X, want 0x%X", gotTarget, synscan.ToWirePosition(90000))
	}

	if len(polls) != 3 {
		t.Fatalf("Goto() reported %d polls, want 3", len(polls))
	}
	if polls[0].Status.Stopped || !polls[2].Status.Stopped {
		t.Errorf("poll progression wrong: first %+v, last %+v", polls[0], polls[2])
	}
}

func TestMount_WaitStoppedHonorsContext(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	// never stops
	f.payloads[tkey(synscan.CmdGetStatus, synscan.Axis1)] = "010"
	f.payloads[tkey(synscan.CmdGetStatus, synscan.Axis2)] = "010"

	m := New(f, WithPollInterval(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.WaitStopped(ctx, synscan.Axis1, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitStopped() = %v, want context.DeadlineExceeded", err)
	}
}

func TestMount_WaitStoppedSkipsMissedSamples(t *testing.T) {
	f := newFakeTransport()
	seedParams(f)
	f.failAll = 1 // first poll misses entirely
	f.payloads[tkey(synscan.CmdGetStatus, synscan.Axis1)] = "000"

	m := New(f, WithPollInterval(time.Millisecond))
	if err := m.WaitStopped(context.Background(), synscan.Axis1, nil); err != nil {
		t.Errorf("WaitStopped() error = %v, want recovery after a missed sample", err)
	}
}
