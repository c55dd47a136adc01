// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package clock

import (
	"sync"
	"time"
)

// DayLength is the default length of a campaign day.
const DayLength = 24 * time.Hour

// Clock provides the wall-clock time.
type Clock interface {
	Now() time.Time
}

// System is the clock backed by time.Now.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Calendar converts instants into integer day numbers counted from Epoch.
type Calendar struct {
	Epoch     time.Time
	DayLength time.Duration
}

// NewCalendar returns a calendar counting days of dayLength from the Unix epoch.
func NewCalendar(dayLength time.Duration) Calendar {
	if dayLength <= 0 {
		dayLength = DayLength
	}
	return Calendar{Epoch: time.Unix(0, 0).UTC(), DayLength: dayLength}
}

// Day returns floor((t - epoch) / dayLength). Instants before the epoch are day 0.
func (c Calendar) Day(t time.Time) uint64 {
	if t.Before(c.Epoch) {
		return 0
	}
	return uint64(t.Sub(c.Epoch) / c.DayLength)
}

// Start returns the first instant of the given day.
func (c Calendar) Start(day uint64) time.Time {
	return c.Epoch.Add(time.Duration(day) * c.DayLength)
}

// Today returns the current day number of clk.
func (c Calendar) Today(clk Clock) uint64 {
	return c.Day(clk.Now())
}

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
