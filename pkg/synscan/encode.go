// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import "fmt"

// EncodeValue renders v as fixed-width uppercase hex for the wire.
// Six-digit values are byte-swapped to least-significant-byte-first order
// (0x123456 becomes "563412"); other widths keep natural order.
func EncodeValue(v int, digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("invalid digit count %d", digits)
	}
	if v < 0 || v >= 1<<(4*digits) {
		return "", fmt.Errorf("value 0x%X does not fit in %d hex digits", v, digits)
	}
	s := fmt.Sprintf("%0*X", digits, v)
	if digits == ValueDigits {
		s = swapValueBytes(s)
	}
	return s, nil
}

// swapValueBytes reorders a 6-digit hex string between natural and wire
// byte order. The swap is its own inverse.
func swapValueBytes(s string) string {
	return s[4:6] + s[2:4] + s[0:2]
}

// EncodeFrame builds a command frame: ':' + command + axis digit + payload + CR.
func EncodeFrame(cmd byte, axis Axis, payload string) ([]byte, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("cannot address %s", axis)
	}
	frame := make([]byte, 0, 4+len(payload))
	frame = append(frame, FrameLead, cmd, byte('0'+axis))
	frame = append(frame, payload...)
	frame = append(frame, FrameEnd)
	return frame, nil
}

// EncodeCommand builds a command frame carrying value rendered at the given
// digit width.
func EncodeCommand(cmd byte, axis Axis, value, digits int) ([]byte, error) {
	payload, err := EncodeValue(value, digits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FormatCommand(cmd), err)
	}
	return EncodeFrame(cmd, axis, payload)
}

// ToWirePosition biases a signed position for transmission.
func ToWirePosition(counts int) int {
	return counts + PositionOffset
}

// FromWirePosition removes the transmission bias from a raw position value.
func FromWirePosition(raw int) int {
	return raw - PositionOffset
}
