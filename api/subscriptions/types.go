// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/thor"
)

// EventMessage is what a subscriber receives for each applied operation.
type EventMessage struct {
	Campaign thor.Address        `json:"campaign"`
	Account  thor.Address        `json:"account"`
	Kind     string              `json:"kind"`
	Day      uint64              `json:"day"`
	Amount   math.HexOrDecimal64 `json:"amount"`
	Time     uint64              `json:"time"`
}

// EventFilter selects the events of a subscription; nil fields match everything.
type EventFilter struct {
	Campaign *thor.Address
	Account  *thor.Address
	Kind     *eventlog.Kind
}

func (f *EventFilter) Match(ev *eventlog.Event) bool {
	if f.Campaign != nil && *f.Campaign != ev.Campaign {
		return false
	}
	if f.Account != nil && *f.Account != ev.Account {
		return false
	}
	if f.Kind != nil && *f.Kind != ev.Kind {
		return false
	}
	return true
}

func convertEvent(ev *eventlog.Event) *EventMessage {
	return &EventMessage{
		Campaign: ev.Campaign,
		Account:  ev.Account,
		Kind:     string(ev.Kind),
		Day:      ev.Day,
		Amount:   math.HexOrDecimal64(ev.Amount),
		Time:     ev.Time,
	}
}
