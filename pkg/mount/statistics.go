// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package mount

import (
	"fmt"
	"time"

	"github.com/openastro/mountctl/pkg/synscan"
)

// Statistics tracks poll health and motion activity for the dashboard and
// the recorder.
type Statistics struct {
	StartTime      time.Time
	LastSampleTime time.Time

	// Counters
	Polls         uint64
	Samples       uint64
	MissedSamples uint64
	Transitions   uint64 // run/stop edges across both axes

	// Rates (calculated)
	PollRate float64 // polls/sec
	MissRate float64 // missed samples/sec

	lastStopped map[synscan.Axis]bool
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastSampleTime: now,
		lastStopped:    make(map[synscan.Axis]bool),
	}
}

// Update records the outcome of one CurrentValues poll. An empty snapshot
// counts as a missed sample.
func (s *Statistics) Update(values map[synscan.Axis]Values) {
	s.Polls++
	if len(values) == 0 {
		s.MissedSamples++
		return
	}
	s.Samples++
	s.LastSampleTime = time.Now()
	for axis, v := range values {
		if last, ok := s.lastStopped[axis]; ok && last != v.Status.Stopped {
			s.Transitions++
		}
		s.lastStopped[axis] = v.Status.Stopped
	}
}

// CalculateRates calculates poll and miss rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PollRate = float64(s.Polls) / elapsed
		s.MissRate = float64(s.MissedSamples) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var samplePercent, missPercent float64
	if s.Polls > 0 {
		samplePercent = float64(s.Samples) * 100.0 / float64(s.Polls)
		missPercent = float64(s.MissedSamples) * 100.0 / float64(s.Polls)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Poll Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Polls:           %8d\n", s.Polls)
	result += fmt.Sprintf("Samples:         %8d (%.1f%%)\n", s.Samples, samplePercent)
	if s.MissedSamples > 0 {
		result += fmt.Sprintf("Missed:          %8d (%.1f%%)\n", s.MissedSamples, missPercent)
	}
	if s.Transitions > 0 {
		result += fmt.Sprintf("Motion Edges:    %8d\n", s.Transitions)
	}
	result += fmt.Sprintf("Poll Rate:       %8.1f polls/sec\n", s.PollRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastSampleTime = now
	s.Polls = 0
	s.Samples = 0
	s.MissedSamples = 0
	s.Transitions = 0
	s.PollRate = 0
	s.MissRate = 0
	s.lastStopped = make(map[synscan.Axis]bool)
}
