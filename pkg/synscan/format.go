// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

// FormatCommand returns the human-readable name for a command letter.
func FormatCommand(cmd byte) string {
	switch cmd {
	// Parameter queries
	case CmdGetCountsPerRev:
		return "GET_COUNTS_PER_REV"
	case CmdGetTimerFreq:
		return "GET_TIMER_FREQ"
	case CmdGetBoardVersion:
		return "GET_BOARD_VERSION"
	case CmdGetStepPeriod:
		return "GET_STEP_PERIOD"

	// Motion state queries
	case CmdGetGotoTarget:
		return "GET_GOTO_TARGET"
	case CmdGetPosition:
		return "GET_POSITION"
	case CmdGetStatus:
		return "GET_STATUS"

	// Motion control
	case CmdSetMotionMode:
		return "SET_MOTION_MODE"
	case CmdSetStepPeriod:
		return "SET_STEP_PERIOD"
	case CmdSetGotoTarget:
		return "SET_GOTO_TARGET"
	case CmdSetPosition:
		return "SET_POSITION"
	case CmdInitDone:
		return "INIT_DONE"
	case CmdStartMotion:
		return "START_MOTION"
	case CmdStopMotion:
		return "STOP_MOTION"

	default:
		return "UNKNOWN"
	}
}
