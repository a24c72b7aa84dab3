// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import "strings"

// Status is the decoded state of one axis, from the 3-digit status word.
type Status struct {
	Tracking      bool // tracking mode; false means goto mode
	CCW           bool // counter-clockwise rotation
	FastSpeed     bool
	Stopped       bool
	Blocked       bool
	InitDone      bool
	LevelSwitchOn bool
}

// DecodeStatus decodes the payload of an 'f' reply. The word is three hex
// digits A, B, C, most significant first:
//
//	A bit0 tracking, bit1 CCW, bit2 fast
//	B bit0 running, bit1 blocked
//	C bit0 not initialized
//
// LevelSwitchOn reads B bit1, the same bit as Blocked; the stock firmware
// reports no separate level-switch bit.
func DecodeStatus(payload string) (Status, error) {
	if len(payload) != StatusDigits {
		return Status{}, &DecodeError{Raw: payload, Reason: "status word must be 3 hex digits"}
	}
	a, okA := hexDigit(payload[0])
	b, okB := hexDigit(payload[1])
	c, okC := hexDigit(payload[2])
	if !okA || !okB || !okC {
		return Status{}, &DecodeError{Raw: payload, Reason: "status word must be 3 hex digits"}
	}
	return Status{
		Tracking:      a&0x1 != 0,
		CCW:           a&0x2 != 0,
		FastSpeed:     a&0x4 != 0,
		Stopped:       b&0x1 == 0,
		Blocked:       b&0x2 != 0,
		InitDone:      c&0x1 == 0,
		LevelSwitchOn: b&0x2 != 0,
	}, nil
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	default:
		return 0, false
	}
}

// String returns a compact flag line for logs, e.g. "goto cw fast running".
func (s Status) String() string {
	parts := make([]string, 0, 7)
	if s.Tracking {
		parts = append(parts, "tracking")
	} else {
		parts = append(parts, "goto")
	}
	if s.CCW {
		parts = append(parts, "ccw")
	} else {
		parts = append(parts, "cw")
	}
	if s.FastSpeed {
		parts = append(parts, "fast")
	} else {
		parts = append(parts, "slow")
	}
	if s.Stopped {
		parts = append(parts, "stopped")
	} else {
		parts = append(parts, "running")
	}
	if s.Blocked {
		parts = append(parts, "blocked")
	}
	if !s.InitDone {
		parts = append(parts, "no-init")
	}
	if s.LevelSwitchOn {
		parts = append(parts, "level")
	}
	return strings.Join(parts, " ")
}

// MotionMode selects how an axis moves once started.
type MotionMode struct {
	Tracking  bool // continuous tracking slew; false programs a goto
	FastSpeed bool
	Clockwise bool
}

// Encode packs the mode into the G-command byte. Bit 0 selects tracking,
// bit 7 clockwise. Bit 1 is the speed bit and is asymmetric: tracking slews
// set it for SLOW, goto slews set it for FAST.
func (m MotionMode) Encode() int {
	v := 0
	if m.Tracking {
		v |= 0x01
		if !m.FastSpeed {
			v |= 0x02
		}
	} else if m.FastSpeed {
		v |= 0x02
	}
	if m.Clockwise {
		v |= 0x80
	}
	return v
}

// DecodeMotionMode unpacks a G-command byte, inverting Encode.
func DecodeMotionMode(v int) MotionMode {
	m := MotionMode{
		Tracking:  v&0x01 != 0,
		Clockwise: v&0x80 != 0,
	}
	speedBit := v&0x02 != 0
	if m.Tracking {
		m.FastSpeed = !speedBit
	} else {
		m.FastSpeed = speedBit
	}
	return m
}

func (m MotionMode) String() string {
	parts := make([]string, 0, 3)
	if m.Tracking {
		parts = append(parts, "tracking")
	} else {
		parts = append(parts, "goto")
	}
	if m.FastSpeed {
		parts = append(parts, "fast")
	} else {
		parts = append(parts, "slow")
	}
	if m.Clockwise {
		parts = append(parts, "cw")
	} else {
		parts = append(parts, "ccw")
	}
	return strings.Join(parts, " ")
}
