// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import (
	"errors"
	"fmt"
)

// ErrNoReply means the controller did not answer within the exchange
// timeout. Callers decide whether to retry; the client never does.
var ErrNoReply = errors.New("no reply from controller")

// ControllerError is an error reply ('!' frame) from the motor controller.
type ControllerError struct {
	Code int
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("controller error %d (%s)", e.Code, ControllerErrorName(e.Code))
}

// DecodeError reports bytes that do not follow the wire grammar.
type DecodeError struct {
	Raw    string // offending bytes as received
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed reply %q: %s", e.Raw, e.Reason)
}

// ControllerErrorName returns the documented meaning of an error code.
func ControllerErrorName(code int) string {
	switch code {
	case ErrCodeUnknownCommand:
		return "unknown command"
	case ErrCodeCommandLength:
		return "command length"
	case ErrCodeMotorNotStopped:
		return "motor not stopped"
	case ErrCodeInvalidChar:
		return "invalid character"
	case ErrCodeNotInitialized:
		return "not initialized"
	case ErrCodeDriverSleeping:
		return "driver sleeping"
	default:
		return "unassigned"
	}
}
