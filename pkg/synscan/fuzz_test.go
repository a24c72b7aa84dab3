// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func TestFuzz_ValueCodecRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		v := rng.Intn(1 << 24)
		payload, err := EncodeValue(v, ValueDigits)
		if err != nil {
			t.Fatalf("round %d: EncodeValue(0x%X) error = %v", i, v, err)
		}
		got, err := DecodeValue(payload)
		if err != nil {
			t.Fatalf("round %d: DecodeValue(%q) error = %v", i, payload, err)
		}
		if got != v {
			t.Fatalf("round %d: 0x%X round-tripped to 0x%X via %q", i, v, got, payload)
		}
	}
}

func TestFuzz_ReplyParserRobustness(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		raw := make([]byte, rng.Intn(16))
		for j := range raw {
			raw[j] = byte(rng.Intn(256))
		}
		// must classify or reject, never panic
		payload, err := ParseReply(raw)
		if err == nil && len(raw) > 0 && raw[0] != ReplyLead {
			t.Fatalf("round %d: ParseReply(%q) = %q without a '=' leader", i, raw, payload)
		}
	}
}

func TestFuzz_StatusDecodeMatchesBitReference(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	const hex = "0123456789ABCDEF"

	for i := 0; i < rounds; i++ {
		a := rng.Intn(16)
		b := rng.Intn(16)
		c := rng.Intn(16)
		payload := string([]byte{hex[a], hex[b], hex[c]})

		status, err := DecodeStatus(payload)
		if err != nil {
			t.Fatalf("round %d: DecodeStatus(%q) error = %v", i, payload, err)
		}
		want := Status{
			Tracking:      a&0x1 != 0,
			CCW:           a&0x2 != 0,
			FastSpeed:     a&0x4 != 0,
			Stopped:       b&0x1 == 0,
			Blocked:       b&0x2 != 0,
			InitDone:      c&0x1 == 0,
			LevelSwitchOn: b&0x2 != 0,
		}
		if status != want {
			t.Fatalf("round %d: DecodeStatus(%q) = %+v, want %+v", i, payload, status, want)
		}
	}
}

func TestFuzz_SimulatorNeverPanics(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	sim := NewSimulator(SimulatorConfig{})

	for i := 0; i < rounds; i++ {
		frame := make([]byte, rng.Intn(12))
		for j := range frame {
			frame[j] = byte(rng.Intn(256))
		}
		if reply := sim.HandleFrame(frame); len(reply) == 0 {
			t.Fatalf("round %d: empty reply for frame %q", i, frame)
		}
	}
}
