// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

// Package synscan implements the SkyWatcher SynScan motor-controller
// protocol: ASCII command framing, the byte-swapped hex value codec, status
// decoding, and request/reply clients over UDP and serial transports.
//
// Frames are ':' + command letter + axis digit + payload + CR. The
// controller answers '=' + payload + CR on success or '!' + code + CR on
// error. Values are fixed-width uppercase hex; six-digit values travel
// least-significant byte first ("563412" encodes 0x123456).
package synscan

import "time"

// Frame characters
const (
	FrameLead = ':'  // starts every command frame
	ReplyLead = '='  // starts every successful reply
	ErrorLead = '!'  // starts every error reply
	FrameEnd  = '\r' // terminates frames and replies
)

// Commands - Parameter queries (driver → controller)
const (
	CmdGetCountsPerRev = 'a' // counts per full axis revolution
	CmdGetTimerFreq    = 'b' // stepping timer interrupt frequency, Hz
	CmdGetBoardVersion = 'e' // motor board firmware version
	CmdGetStepPeriod   = 'i' // current step period (timer preset)
)

// Commands - Motion state queries (driver → controller)
const (
	CmdGetGotoTarget = 'h' // programmed goto target, biased
	CmdGetPosition   = 'j' // current position, biased
	CmdGetStatus     = 'f' // 3-digit status word
)

// Commands - Motion control (driver → controller)
const (
	CmdSetMotionMode = 'G' // 2-digit mode byte, motor must be stopped
	CmdSetStepPeriod = 'I' // step period for tracking rate
	CmdSetGotoTarget = 'S' // goto target, biased
	CmdSetPosition   = 'E' // overwrite position counter, biased
	CmdInitDone      = 'F' // finish axis initialization
	CmdStartMotion   = 'J'
	CmdStopMotion    = 'K'
)

// Hex payload widths. Only ValueDigits payloads are byte-swapped on the
// wire; mode and status words travel in natural order.
const (
	ValueDigits  = 6 // 24-bit values
	ModeDigits   = 2 // motion mode byte
	StatusDigits = 3 // status word
)

// PositionOffset biases signed positions and goto targets so they fit the
// unsigned 24-bit wire field. Added on write, subtracted on read.
const PositionOffset = 0x800000

// Controller error codes carried in '!' replies
const (
	ErrCodeUnknownCommand  = 0
	ErrCodeCommandLength   = 1
	ErrCodeMotorNotStopped = 2
	ErrCodeInvalidChar     = 3
	ErrCodeNotInitialized  = 4
	ErrCodeDriverSleeping  = 5
)

// Default endpoint of the SynScan Wi-Fi adapter in access-point mode.
const (
	DefaultHost = "192.168.4.1"
	DefaultPort = 11880
)

// DefaultTimeout bounds one request/reply exchange.
const DefaultTimeout = 2 * time.Second

// Axis identifies one of the two motor axes.
type Axis int

const (
	Axis1 Axis = 1 // azimuth / right ascension
	Axis2 Axis = 2 // altitude / declination
)

// Axes lists both axes in wire order, for iteration.
var Axes = [...]Axis{Axis1, Axis2}

// Valid reports whether a is an axis this protocol can address.
func (a Axis) Valid() bool {
	return a == Axis1 || a == Axis2
}

func (a Axis) String() string {
	switch a {
	case Axis1:
		return "axis 1"
	case Axis2:
		return "axis 2"
	default:
		return "invalid axis"
	}
}
