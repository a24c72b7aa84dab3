// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package mount

import (
	"errors"
	"fmt"
)

// ErrZeroSpeed rejects tracking rates that work out to zero counts per
// second; the step-timer preset divides by the count rate.
var ErrZeroSpeed = errors.New("tracking speed cannot be zero")

// Params holds the fixed per-axis values read from the controller during
// initialization. All conversions hang off it so no hidden state is
// involved.
type Params struct {
	CountsPerRev int // encoder counts per full axis revolution
	TimerFreq    int // step-timer interrupt frequency, Hz
	StepPeriod   int // step period at fetch time
	BoardVersion int
}

// DegreesToCounts converts a mechanical angle to motor counts.
func (p Params) DegreesToCounts(deg float64) float64 {
	return deg * float64(p.CountsPerRev) / 360
}

// CountsToDegrees converts motor counts to a mechanical angle.
func (p Params) CountsToDegrees(counts float64) float64 {
	return counts * 360 / float64(p.CountsPerRev)
}

// TimerPreset computes the step-timer preset for a rate in degrees per
// second: the timer frequency divided by the count rate. Callers truncate
// to an integer before programming it.
func (p Params) TimerPreset(degPerSec float64) (float64, error) {
	countsPerSec := p.DegreesToCounts(degPerSec)
	if countsPerSec == 0 {
		return 0, ErrZeroSpeed
	}
	return float64(p.TimerFreq) / countsPerSec, nil
}

// validate rejects parameter sets the conversions cannot work with.
func (p Params) validate() error {
	if p.CountsPerRev <= 0 {
		return fmt.Errorf("counts per revolution must be positive, got %d", p.CountsPerRev)
	}
	if p.TimerFreq <= 0 {
		return fmt.Errorf("timer frequency must be positive, got %d", p.TimerFreq)
	}
	return nil
}
