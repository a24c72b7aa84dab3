// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package mount

import (
	"errors"
	"math"
	"testing"
)

// testParams uses round numbers so expected values stay readable:
// 1000 counts per degree, 10 kHz step timer.
var testParams = Params{
	CountsPerRev: 360000,
	TimerFreq:    10000,
	StepPeriod:   1000,
	BoardVersion: 0x0210A1,
}

// ============================================================
// Conversion Tests
// ============================================================

func TestParams_DegreesToCounts(t *testing.T) {
	tests := []struct {
		deg  float64
		want float64
	}{
		{0, 0},
		{1, 1000},
		{90, 90000},
		{360, 360000},
		{-5, -5000},
		{0.5, 500},
	}

	for _, tt := range tests {
		if got := testParams.DegreesToCounts(tt.deg); got != tt.want {
			t.Errorf("DegreesToCounts(%v) = %v, want %v", tt.deg, got, tt.want)
		}
	}
}

func TestParams_CountsToDegrees(t *testing.T) {
	tests := []struct {
		counts float64
		want   float64
	}{
		{0, 0},
		{1000, 1},
		{90000, 90},
		{-5000, -5},
	}

	for _, tt := range tests {
		if got := testParams.CountsToDegrees(tt.counts); got != tt.want {
			t.Errorf("CountsToDegrees(%v) = %v, want %v", tt.counts, got, tt.want)
		}
	}
}

func TestParams_ConversionRoundTrip(t *testing.T) {
	// an awkward counts-per-revolution so the division is inexact
	p := Params{CountsPerRev: 9024000, TimerFreq: 64935}

	for _, deg := range []float64{0, 0.001, 1, 33.3, 90, 179.999, -45.5, -180} {
		got := p.CountsToDegrees(p.DegreesToCounts(deg))
		if math.Abs(got-deg) > 1e-9*math.Max(1, math.Abs(deg)) {
			t.Errorf("round trip of %v degrees = %v", deg, got)
		}
	}
}

func TestParams_TimerPreset(t *testing.T) {
	tests := []struct {
		degPerSec float64
		want      float64
	}{
		{1, 10},    // 1000 counts/s
		{0.5, 20},  // 500 counts/s
		{5, 2},     // 5000 counts/s
		{0.01, 1000},
	}

	for _, tt := range tests {
		got, err := testParams.TimerPreset(tt.degPerSec)
		if err != nil {
			t.Fatalf("TimerPreset(%v) error = %v", tt.degPerSec, err)
		}
		if got != tt.want {
			t.Errorf("TimerPreset(%v) = %v, want %v", tt.degPerSec, got, tt.want)
		}
	}
}

func TestParams_TimerPresetZeroSpeed(t *testing.T) {
	_, err := testParams.TimerPreset(0)
	if !errors.Is(err, ErrZeroSpeed) {
		t.Errorf("TimerPreset(0) error = %v, want ErrZeroSpeed", err)
	}
}

func TestParams_Validate(t *testing.T) {
	if err := testParams.validate(); err != nil {
		t.Errorf("validate() on sane parameters = %v", err)
	}
	if err := (Params{CountsPerRev: 0, TimerFreq: 1}).validate(); err == nil {
		t.Error("validate() should reject zero counts per revolution")
	}
	if err := (Params{CountsPerRev: 1, TimerFreq: -3}).validate(); err == nil {
		t.Error("validate() should reject a negative timer frequency")
	}
}
