// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import (
	"context"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Simulator defaults, EQ-class values.
const (
	SimCountsPerRev = 9024000
	SimTimerFreq    = 64935
	SimBoardVersion = 0x0210A1
)

const simStepInterval = 50 * time.Millisecond

// SimulatorConfig seeds per-axis parameters. Zero fields take the Sim
// defaults above.
type SimulatorConfig struct {
	CountsPerRev int
	TimerFreq    int
	BoardVersion int

	// StartUninitialized models the power-on state: motion is refused
	// until an INIT_DONE command arrives.
	StartUninitialized bool
}

// Simulator emulates a two-axis motor controller well enough to develop and
// test against without hardware. It answers the full command alphabet and
// integrates commanded motion in Step.
type Simulator struct {
	mu   sync.Mutex
	axes [2]simAxis
}

type simAxis struct {
	cpr        int
	timerFreq  int
	boardVer   int
	stepPeriod int
	position   float64 // counts; float so slow rates accumulate
	target     int
	mode       MotionMode
	running    bool
	blocked    bool
	inited     bool
}

// NewSimulator builds a simulator with both axes stopped, initialized and
// at position zero.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.CountsPerRev <= 0 {
		cfg.CountsPerRev = SimCountsPerRev
	}
	if cfg.TimerFreq <= 0 {
		cfg.TimerFreq = SimTimerFreq
	}
	if cfg.BoardVersion <= 0 {
		cfg.BoardVersion = SimBoardVersion
	}
	s := &Simulator{}
	for i := range s.axes {
		s.axes[i] = simAxis{
			cpr:        cfg.CountsPerRev & 0xFFFFFF,
			timerFreq:  cfg.TimerFreq & 0xFFFFFF,
			boardVer:   cfg.BoardVersion & 0xFFFFFF,
			stepPeriod: cfg.TimerFreq & 0xFFFFFF, // 1 count/s until programmed
			inited:     !cfg.StartUninitialized,
		}
	}
	return s
}

// HandleFrame answers one command frame. It never blocks; malformed input
// earns the documented controller error codes.
func (s *Simulator) HandleFrame(frame []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(frame) < 4 || frame[0] != FrameLead || frame[len(frame)-1] != FrameEnd {
		return errReply(ErrCodeUnknownCommand)
	}
	cmd := frame[1]
	axisChar := frame[2]
	if axisChar != '1' && axisChar != '2' {
		return errReply(ErrCodeInvalidChar)
	}
	ax := &s.axes[axisChar-'1']
	payload := string(frame[3 : len(frame)-1])

	switch cmd {
	case CmdGetCountsPerRev:
		return valueReply(ax.cpr)
	case CmdGetTimerFreq:
		return valueReply(ax.timerFreq)
	case CmdGetBoardVersion:
		return valueReply(ax.boardVer)
	case CmdGetStepPeriod:
		return valueReply(ax.stepPeriod)
	case CmdGetGotoTarget:
		return valueReply(ToWirePosition(ax.target))
	case CmdGetPosition:
		return valueReply(ToWirePosition(int(math.Round(ax.position))))
	case CmdGetStatus:
		return []byte(fmt.Sprintf("=%s\r", ax.statusWord()))

	case CmdSetMotionMode:
		v, bad := parseSimValue(payload, ModeDigits)
		if bad != nil {
			return bad
		}
		if ax.running {
			return errReply(ErrCodeMotorNotStopped)
		}
		ax.mode = DecodeMotionMode(v)
		return ackReply()
	case CmdSetStepPeriod:
		v, bad := parseSimValue(payload, ValueDigits)
		if bad != nil {
			return bad
		}
		ax.stepPeriod = v
		return ackReply()
	case CmdSetGotoTarget:
		v, bad := parseSimValue(payload, ValueDigits)
		if bad != nil {
			return bad
		}
		if ax.running {
			return errReply(ErrCodeMotorNotStopped)
		}
		ax.target = FromWirePosition(v)
		return ackReply()
	case CmdSetPosition:
		v, bad := parseSimValue(payload, ValueDigits)
		if bad != nil {
			return bad
		}
		if ax.running {
			return errReply(ErrCodeMotorNotStopped)
		}
		ax.position = float64(FromWirePosition(v))
		return ackReply()
	case CmdInitDone:
		ax.inited = true
		return ackReply()
	case CmdStartMotion:
		if !ax.inited {
			return errReply(ErrCodeNotInitialized)
		}
		ax.running = true
		return ackReply()
	case CmdStopMotion:
		ax.running = false
		return ackReply()

	default:
		return errReply(ErrCodeUnknownCommand)
	}
}

// Step advances commanded motion by dt. Tracking integrates the programmed
// rate in the commanded direction; goto moves toward the target and stops
// on arrival.
func (s *Simulator) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec := dt.Seconds()
	for i := range s.axes {
		ax := &s.axes[i]
		if !ax.running {
			continue
		}
		move := ax.rate() * sec
		if ax.mode.Tracking {
			if ax.mode.Clockwise {
				ax.position += move
			} else {
				ax.position -= move
			}
			ax.position = wrapCounts(ax.position)
			continue
		}
		delta := float64(ax.target) - ax.position
		if math.Abs(delta) <= move {
			ax.position = float64(ax.target)
			ax.running = false
		} else if delta > 0 {
			ax.position += move
		} else {
			ax.position -= move
		}
	}
}

// Run serves frames from pc until ctx is done, one frame per datagram,
// stepping the motion model on a fixed cadence.
func (s *Simulator) Run(ctx context.Context, pc net.PacketConn) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		pc.Close()
		return ctx.Err()
	})
	g.Go(func() error {
		ticker := time.NewTicker(simStepInterval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				s.Step(now.Sub(last))
				last = now
			}
		}
	})
	g.Go(func() error {
		buf := make([]byte, 64)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			reply := s.HandleFrame(buf[:n])
			if _, err := pc.WriteTo(reply, addr); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	})
	return g.Wait()
}

// rate is the commanded step rate in counts per second.
func (ax *simAxis) rate() float64 {
	if ax.stepPeriod <= 0 {
		return float64(ax.timerFreq)
	}
	return float64(ax.timerFreq) / float64(ax.stepPeriod)
}

func (ax *simAxis) statusWord() string {
	a, b, c := 0, 0, 0
	if ax.mode.Tracking {
		a |= 0x1
	}
	if !ax.mode.Clockwise {
		a |= 0x2
	}
	if ax.mode.FastSpeed {
		a |= 0x4
	}
	if ax.running {
		b |= 0x1
	}
	if ax.blocked {
		b |= 0x2
	}
	if !ax.inited {
		c |= 0x1
	}
	return fmt.Sprintf("%X%X%X", a, b, c)
}

func parseSimValue(payload string, digits int) (int, []byte) {
	if len(payload) != digits {
		return 0, errReply(ErrCodeCommandLength)
	}
	v, err := DecodeValue(payload)
	if err != nil {
		return 0, errReply(ErrCodeInvalidChar)
	}
	return v, nil
}

func ackReply() []byte {
	return []byte{ReplyLead, FrameEnd}
}

func errReply(code int) []byte {
	return []byte(fmt.Sprintf("!%X\r", code))
}

func valueReply(v int) []byte {
	payload, _ := EncodeValue(v&0xFFFFFF, ValueDigits)
	return []byte(fmt.Sprintf("=%s\r", payload))
}

// wrapCounts folds a position into the signed 24-bit window the wire can
// carry.
func wrapCounts(p float64) float64 {
	const span = 1 << 24
	for p >= PositionOffset {
		p -= span
	}
	for p < -PositionOffset {
		p += span
	}
	return p
}
