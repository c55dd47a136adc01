// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	stdmath "math"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/thor"
)

type Range struct {
	From *uint64 `json:"from"`
	To   *uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	Campaign *thor.Address `json:"campaign"`
	Account  *thor.Address `json:"account"`
	Kinds    []string      `json:"kinds"`
	Range    *Range        `json:"range"`
	Options  *Options      `json:"options"`
	Order    string        `json:"order"`
}

type FilteredEvent struct {
	Seq      uint64              `json:"seq"`
	Campaign thor.Address        `json:"campaign"`
	Account  thor.Address        `json:"account"`
	Kind     string              `json:"kind"`
	Day      uint64              `json:"day"`
	Amount   math.HexOrDecimal64 `json:"amount"`
	Time     uint64              `json:"time"`
}

func convertFilter(ef *EventFilter) (*eventlog.Filter, error) {
	f := &eventlog.Filter{
		Campaign: ef.Campaign,
		Account:  ef.Account,
		Order:    eventlog.ASC,
	}
	switch ef.Order {
	case "", string(eventlog.ASC):
	case string(eventlog.DESC):
		f.Order = eventlog.DESC
	default:
		return nil, fmt.Errorf("order: unknown order %q", ef.Order)
	}
	for _, k := range ef.Kinds {
		kind := eventlog.Kind(k)
		if !kind.Valid() {
			return nil, fmt.Errorf("kinds: unknown kind %q", k)
		}
		f.Kinds = append(f.Kinds, kind)
	}
	if ef.Range != nil {
		r := &eventlog.Range{To: stdmath.MaxInt64}
		if ef.Range.From != nil {
			r.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			r.To = min(*ef.Range.To, stdmath.MaxInt64)
		}
		if r.From > r.To {
			return nil, fmt.Errorf("range: to must be greater than or equal to from")
		}
		f.Range = r
	}
	if ef.Options != nil {
		f.Options = &eventlog.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	return f, nil
}

func convertEvent(ev *eventlog.Event) *FilteredEvent {
	return &FilteredEvent{
		Seq:      ev.Seq,
		Campaign: ev.Campaign,
		Account:  ev.Account,
		Kind:     string(ev.Kind),
		Day:      ev.Day,
		Amount:   math.HexOrDecimal64(ev.Amount),
		Time:     ev.Time,
	}
}
