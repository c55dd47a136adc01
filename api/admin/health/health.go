// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"
)

type ClockCheck struct {
	OffsetMs  int64      `json:"offsetMs"`
	Timestamp *time.Time `json:"timestamp"`
}

type Status struct {
	Healthy    bool        `json:"healthy"`
	Today      uint64      `json:"today"`
	ClockCheck *ClockCheck `json:"clockCheck"`
}

// Health tracks the local clock against a reference time source. Day boundaries
// come from the local clock, so a drifting clock seals days at the wrong moment.
type Health struct {
	lock      sync.RWMutex
	today     func() uint64
	tolerance time.Duration
	offset    time.Duration
	checkedAt time.Time
}

// New creates a Health. A zero tolerance disables the clock check.
func New(today func() uint64, tolerance time.Duration) *Health {
	return &Health{
		today:     today,
		tolerance: tolerance,
	}
}

// ClockOffset records the result of a clock check.
func (h *Health) ClockOffset(offset time.Duration) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.offset = offset
	h.checkedAt = time.Now()
}

func (h *Health) status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	st := &Status{
		Healthy: true,
		Today:   h.today(),
	}
	if h.checkedAt.IsZero() {
		return st
	}

	checkedAt := h.checkedAt
	st.ClockCheck = &ClockCheck{
		OffsetMs:  h.offset.Milliseconds(),
		Timestamp: &checkedAt,
	}
	if h.tolerance > 0 {
		st.Healthy = h.offset.Abs() <= h.tolerance
	}
	return st
}
