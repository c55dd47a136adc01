// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/participant"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/thor"
)

// access tells which ledger an operation works on.
type access uint8

const (
	ledgerNone     access = iota // campaign only
	ledgerAny                    // the caller's ledger, empty when it does not exist
	ledgerExisting               // the caller's ledger, which must exist
)

type transfer struct {
	from, to thor.Address
	amount   uint64
}

// session holds the working copies of one operation. Nothing in it is visible
// to other operations until it is committed.
type session struct {
	today       uint64
	amount      uint64
	campaign    *campaign.Campaign
	participant *participant.Participant
	isNew       bool
	transfers   []transfer

	closeParticipant bool
	closeCampaign    bool
}

func (ss *session) pay(from, to thor.Address, amount uint64) {
	if amount > 0 {
		ss.transfers = append(ss.transfers, transfer{from, to, amount})
	}
}

// run applies an operation and reports it.
func (s *Staker) run(kind eventlog.Kind, id, caller thor.Address, amount uint64, acc access, fn func(*session) error) (err error) {
	began := time.Now()
	defer func() { observe(kind, began, err) }()

	ev, err := s.apply(kind, id, caller, amount, acc, fn)
	if err != nil {
		logger.Info(string(kind)+" failed", "campaign", id, "caller", caller, "error", err)
		return err
	}
	logger.Info(string(kind)+" done", "campaign", id, "caller", caller, "day", ev.Day, "amount", ev.Amount)
	s.feed.Send(ev)
	return nil
}

// apply settles the campaign and the ledger to today on working copies, runs fn on them,
// moves the funds fn asked for, and writes both records in one batch.
func (s *Staker) apply(kind eventlog.Kind, id, caller thor.Address, amount uint64, acc access, fn func(*session) error) (*eventlog.Event, error) {
	unlock := s.lock(id)
	defer unlock()

	today := s.Today()
	c, err := s.storage.getCampaign(id)
	if err != nil {
		return nil, err
	}
	if err := c.Advance(today); err != nil {
		return nil, err
	}
	ss := &session{
		today:    today,
		amount:   amount,
		campaign: c,
	}

	if acc != ledgerNone {
		p, err := s.storage.getParticipant(id, caller)
		if err != nil {
			return nil, err
		}
		if p == nil {
			if acc == ledgerExisting {
				return nil, reverts.ErrParticipantUnknown
			}
			p = participant.New(caller, id, today)
			ss.isNew = true
		}
		if _, err := p.Settle(c, today); err != nil {
			return nil, err
		}
		ss.participant = p
	}

	if err := fn(ss); err != nil {
		return nil, err
	}
	if ss.isNew {
		c.Participants++
	}
	if err := c.CheckInvariants(); err != nil {
		return nil, err
	}

	if err := s.transfer(c.Asset, ss.transfers); err != nil {
		return nil, err
	}
	if err := s.persist(ss); err != nil {
		s.undo(c.Asset, ss.transfers)
		return nil, err
	}

	ev := s.newEvent(kind, id, caller, today, ss.amount)
	s.record(ev)
	reportCampaign(c)
	return ev, nil
}

func (s *Staker) persist(ss *session) error {
	w := s.storage.newWriter()
	if ss.closeCampaign {
		if err := w.deleteCampaign(ss.campaign.ID); err != nil {
			return err
		}
	} else if err := w.putCampaign(ss.campaign); err != nil {
		return err
	}

	if p := ss.participant; p != nil {
		if ss.closeParticipant {
			if err := w.deleteParticipant(p); err != nil {
				return err
			}
		} else if err := w.putParticipant(p); err != nil {
			return err
		}
	}
	return w.commit()
}

// transfer requests the custody moves in order; when one fails the earlier ones are reverted.
func (s *Staker) transfer(asset thor.Address, transfers []transfer) error {
	for i, t := range transfers {
		if err := s.custody.Transfer(asset, t.from, t.to, t.amount); err != nil {
			s.undo(asset, transfers[:i])
			return errors.WithMessage(err, "custody transfer")
		}
	}
	return nil
}

func (s *Staker) undo(asset thor.Address, transfers []transfer) {
	for i := len(transfers) - 1; i >= 0; i-- {
		t := transfers[i]
		if err := s.custody.Transfer(asset, t.to, t.from, t.amount); err != nil {
			logger.Error("failed to revert custody transfer", "asset", asset, "from", t.from, "to", t.to, "amount", t.amount, "error", err)
		}
	}
}

func (s *Staker) newEvent(kind eventlog.Kind, id, caller thor.Address, day, amount uint64) *eventlog.Event {
	return &eventlog.Event{
		Campaign: id,
		Account:  caller,
		Kind:     kind,
		Day:      day,
		Amount:   amount,
		Time:     uint64(s.clock.Now().Unix()),
	}
}

// record appends an event to the history. The operation is already committed, so a
// failure is only logged.
func (s *Staker) record(ev *eventlog.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(context.Background(), ev); err != nil {
		logger.Warn("failed to record event", "kind", ev.Kind, "campaign", ev.Campaign, "error", err)
	}
}
