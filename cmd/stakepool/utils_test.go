// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadIntFromUInt64Flag_WithinRange(t *testing.T) {
	got, err := readIntFromUInt64Flag(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("want 42, got %d", got)
	}
}

func TestReadIntFromUInt64Flag_MaxInt(t *testing.T) {
	val := uint64(math.MaxInt)
	got, err := readIntFromUInt64Flag(val)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != int(val) {
		t.Fatalf("want %d, got %d", val, got)
	}
}

func TestReadIntFromUInt64Flag_TooLarge(t *testing.T) {
	val := uint64(math.MaxInt) + 1
	if _, err := readIntFromUInt64Flag(val); err == nil {
		t.Fatalf("expected error for value > MaxInt")
	}
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.Equal(t, 16, normalizeCacheSize(1))
	assert.LessOrEqual(t, normalizeCacheSize(math.MaxInt32), math.MaxInt32)
}

func TestClockChecker(t *testing.T) {
	var (
		mu       sync.Mutex
		reported []time.Duration
		answers  = []time.Duration{time.Second, -3 * time.Second}
		calls    int
	)
	c := newClockChecker("ntp.test", 2*time.Second, func(offset time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, offset)
	})
	c.query = func(server string) (time.Duration, error) {
		assert.Equal(t, "ntp.test", server)
		if calls >= len(answers) {
			return 0, errors.New("unreachable")
		}
		calls++
		return answers[calls-1], nil
	}

	c.check()
	c.check()
	c.check() // failures are not reported
	assert.Equal(t, answers, reported)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.run(ctx, time.Hour))
}
