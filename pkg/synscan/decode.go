// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import (
	"strconv"
	"strings"
)

// ParseReply validates one reply frame and returns its payload. An '='
// frame yields the payload (possibly empty, for bare acknowledgements), a
// '!' frame yields a *ControllerError, anything else a *DecodeError. The
// trailing CR is optional so callers may pass trimmed lines.
func ParseReply(raw []byte) (string, error) {
	line := strings.TrimRight(string(raw), "\r\n")
	if line == "" {
		return "", &DecodeError{Raw: string(raw), Reason: "empty reply"}
	}
	switch line[0] {
	case ReplyLead:
		return line[1:], nil
	case ErrorLead:
		code, err := strconv.ParseUint(line[1:], 16, 8)
		if err != nil {
			return "", &DecodeError{Raw: string(raw), Reason: "unreadable error code"}
		}
		return "", &ControllerError{Code: int(code)}
	default:
		return "", &DecodeError{Raw: string(raw), Reason: "reply must start with '=' or '!'"}
	}
}

// DecodeValue parses a hex payload into an integer, undoing the wire byte
// swap when the payload is exactly six digits.
func DecodeValue(payload string) (int, error) {
	s := payload
	if len(s) == ValueDigits {
		s = swapValueBytes(s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, &DecodeError{Raw: payload, Reason: "not a hex value"}
	}
	return int(v), nil
}
