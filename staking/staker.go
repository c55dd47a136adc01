// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/stakepool/custody"
	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/clock"
	"github.com/vechain/stakepool/staking/participant"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/thor"
)

var logger = log.WithContext("pkg", "staking")

func SetLogger(l log.Logger) {
	logger = l
}

// Staker runs the staking operations of every campaign held in a store.
// Operations on one campaign are serialized; different campaigns proceed in parallel.
type Staker struct {
	storage  *storage
	custody  custody.Custody
	clock    clock.Clock
	calendar clock.Calendar
	events   *eventlog.EventLog

	createMu sync.Mutex
	locksMu  sync.Mutex
	locks    map[thor.Address]*sync.Mutex

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates a staker. events may be nil to keep no history.
func New(store kv.Store, custody custody.Custody, clk clock.Clock, calendar clock.Calendar, events *eventlog.EventLog) *Staker {
	return &Staker{
		storage:  newStorage(store),
		custody:  custody,
		clock:    clk,
		calendar: calendar,
		events:   events,
		locks:    make(map[thor.Address]*sync.Mutex),
	}
}

// Close ends every event subscription.
func (s *Staker) Close() {
	s.scope.Close()
}

// Today returns the current day number.
func (s *Staker) Today() uint64 {
	return s.calendar.Today(s.clock)
}

func (s *Staker) Calendar() clock.Calendar {
	return s.calendar
}

// SubscribeEvents delivers every applied operation to ch. The receiver must keep
// draining ch, operations block on delivery otherwise.
func (s *Staker) SubscribeEvents(ch chan<- *eventlog.Event) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

// lock takes the exclusive lock of a campaign and returns its release.
func (s *Staker) lock(id thor.Address) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

//
// Operations
//

// CreateCampaign registers a campaign running over the days containing [start, end).
// The returned address identifies the campaign and holds its escrow.
func (s *Staker) CreateCampaign(owner, asset thor.Address, start, end time.Time, minStakeSize uint64, mode campaign.ShareMode) (id thor.Address, err error) {
	logger.Debug("creating campaign", "owner", owner, "asset", asset, "start", start, "end", end, "mode", mode)
	began := time.Now()
	defer func() { observe(eventlog.KindCreate, began, err) }()

	ev, err := s.create(owner, asset, start, end, minStakeSize, mode)
	if err != nil {
		logger.Info("create campaign failed", "owner", owner, "error", err)
		return thor.Address{}, err
	}
	logger.Info("created campaign", "id", ev.Campaign, "owner", owner)
	s.feed.Send(ev)
	return ev.Campaign, nil
}

func (s *Staker) create(owner, asset thor.Address, start, end time.Time, minStakeSize uint64, mode campaign.ShareMode) (*eventlog.Event, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	nonce, err := s.storage.nonce(owner)
	if err != nil {
		return nil, err
	}
	id := thor.CreateCampaignAddress(owner, nonce)

	unlock := s.lock(id)
	defer unlock()

	exists, err := s.storage.hasCampaign(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, reverts.ErrAlreadyInitialized
	}
	c, err := campaign.New(id, owner, asset, s.calendar.Day(start), s.calendar.Day(end), minStakeSize, mode)
	if err != nil {
		return nil, err
	}

	w := s.storage.newWriter()
	if err := w.putCampaign(c); err != nil {
		return nil, err
	}
	if err := w.putNonce(owner, nonce+1); err != nil {
		return nil, err
	}
	if err := w.commit(); err != nil {
		return nil, err
	}

	today := s.Today()
	ev := s.newEvent(eventlog.KindCreate, id, owner, today, 0)
	s.record(ev)
	reportCampaign(c)
	return ev, nil
}

// Stake starts a stake of amount, or adds amount to pending when a stake is active.
func (s *Staker) Stake(id, caller thor.Address, amount uint64) error {
	logger.Debug("staking", "campaign", id, "caller", caller, "amount", amount)
	return s.run(eventlog.KindStake, id, caller, amount, ledgerAny, func(ss *session) error {
		if err := ss.participant.Stake(ss.campaign, ss.today, amount); err != nil {
			return err
		}
		ss.pay(caller, id, amount)
		return nil
	})
}

// Boost doubles the caller's weight for today.
func (s *Staker) Boost(id, caller thor.Address) error {
	logger.Debug("boosting", "campaign", id, "caller", caller)
	return s.run(eventlog.KindBoost, id, caller, 0, ledgerAny, func(ss *session) error {
		ss.amount = ss.participant.Staked
		return ss.participant.Boost(ss.campaign, ss.today)
	})
}

// Cancel ends the caller's stake; the funds stay in pending.
func (s *Staker) Cancel(id, caller thor.Address) error {
	logger.Debug("cancelling stake", "campaign", id, "caller", caller)
	return s.run(eventlog.KindCancel, id, caller, 0, ledgerAny, func(ss *session) error {
		ss.amount = ss.participant.Staked
		return ss.participant.Cancel(ss.campaign, ss.today)
	})
}

// Claim pays amount out to the caller from accrued reward, pending funds and the stake, in that order.
func (s *Staker) Claim(id, caller thor.Address, amount uint64) error {
	logger.Debug("claiming", "campaign", id, "caller", caller, "amount", amount)
	return s.run(eventlog.KindClaim, id, caller, amount, ledgerAny, func(ss *session) error {
		if err := ss.participant.Claim(ss.campaign, ss.today, amount); err != nil {
			return err
		}
		ss.pay(id, caller, amount)
		return nil
	})
}

// TransferAccruedToPending moves reward into pending without withdrawing it.
func (s *Staker) TransferAccruedToPending(id, caller thor.Address, amount uint64) error {
	logger.Debug("transferring accrued to pending", "campaign", id, "caller", caller, "amount", amount)
	return s.run(eventlog.KindTransfer, id, caller, amount, ledgerAny, func(ss *session) error {
		return ss.participant.TransferAccruedToPending(ss.campaign, ss.today, amount)
	})
}

// AddBudget deposits reward into a campaign that has not started.
func (s *Staker) AddBudget(id, caller thor.Address, amount uint64) error {
	logger.Debug("adding budget", "campaign", id, "caller", caller, "amount", amount)
	return s.run(eventlog.KindAddBudget, id, caller, amount, ledgerNone, func(ss *session) error {
		if ss.campaign.Owner != caller {
			return reverts.ErrWrongAuthority
		}
		if err := ss.campaign.AddBudget(ss.today, amount); err != nil {
			return err
		}
		ss.pay(caller, id, amount)
		return nil
	})
}

// RedeemUnspent returns uncommitted budget to the owner once the campaign is over.
func (s *Staker) RedeemUnspent(id, caller thor.Address, amount uint64) error {
	logger.Debug("redeeming unspent", "campaign", id, "caller", caller, "amount", amount)
	return s.run(eventlog.KindRedeem, id, caller, amount, ledgerNone, func(ss *session) error {
		if ss.campaign.Owner != caller {
			return reverts.ErrWrongAuthority
		}
		if err := ss.campaign.Redeem(ss.today, amount); err != nil {
			return err
		}
		ss.pay(id, caller, amount)
		return nil
	})
}

// CloseParticipant deletes the caller's empty ledger.
func (s *Staker) CloseParticipant(id, caller thor.Address) error {
	logger.Debug("closing participant", "campaign", id, "caller", caller)
	return s.run(eventlog.KindCloseParticipant, id, caller, 0, ledgerExisting, func(ss *session) error {
		if err := ss.participant.CheckClosable(); err != nil {
			return err
		}
		ss.closeParticipant = true
		ss.campaign.Participants--
		return nil
	})
}

// CloseCampaign deletes a finished campaign holding nothing.
func (s *Staker) CloseCampaign(id, caller thor.Address) error {
	logger.Debug("closing campaign", "campaign", id, "caller", caller)
	return s.run(eventlog.KindCloseCampaign, id, caller, 0, ledgerNone, func(ss *session) error {
		if ss.campaign.Owner != caller {
			return reverts.ErrWrongAuthority
		}
		if err := ss.campaign.CheckClosable(ss.today); err != nil {
			return err
		}
		ss.closeCampaign = true
		return nil
	})
}

//
// Views - no state change
//

// view loads a campaign advanced to today.
func (s *Staker) view(id thor.Address) (*campaign.Campaign, uint64, error) {
	unlock := s.lock(id)
	c, err := s.storage.getCampaign(id)
	unlock()
	if err != nil {
		return nil, 0, err
	}
	today := s.Today()
	if err := c.Advance(today); err != nil {
		return nil, 0, err
	}
	return c, today, nil
}

// viewParticipant loads a campaign and a ledger settled to today.
func (s *Staker) viewParticipant(id, owner thor.Address) (*participant.Participant, *campaign.Campaign, uint64, error) {
	unlock := s.lock(id)
	c, err := s.storage.getCampaign(id)
	if err != nil {
		unlock()
		return nil, nil, 0, err
	}
	p, err := s.storage.getParticipant(id, owner)
	unlock()
	if err != nil {
		return nil, nil, 0, err
	}
	if p == nil {
		return nil, nil, 0, reverts.ErrParticipantUnknown
	}

	today := s.Today()
	if err := c.Advance(today); err != nil {
		return nil, nil, 0, err
	}
	if _, err := p.Settle(c, today); err != nil {
		return nil, nil, 0, err
	}
	return p, c, today, nil
}

// Campaign returns the campaign as of today.
func (s *Staker) Campaign(id thor.Address) (*campaign.Campaign, error) {
	c, _, err := s.view(id)
	return c, err
}

// Campaigns returns every campaign as of today.
func (s *Staker) Campaigns() ([]*campaign.Campaign, error) {
	ids, err := s.storage.campaignIDs()
	if err != nil {
		return nil, err
	}
	campaigns := make([]*campaign.Campaign, 0, len(ids))
	for _, id := range ids {
		c, _, err := s.view(id)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

// Participant returns the ledger of owner as of today.
func (s *Staker) Participant(id, owner thor.Address) (*participant.Participant, error) {
	p, _, _, err := s.viewParticipant(id, owner)
	return p, err
}

// Participants returns the ledgers of a campaign as of today.
func (s *Staker) Participants(id thor.Address) ([]*participant.Participant, error) {
	unlock := s.lock(id)
	c, err := s.storage.getCampaign(id)
	if err != nil {
		unlock()
		return nil, err
	}
	ps, err := s.storage.participants(id)
	unlock()
	if err != nil {
		return nil, err
	}

	today := s.Today()
	if err := c.Advance(today); err != nil {
		return nil, err
	}
	for _, p := range ps {
		if _, err := p.Settle(c, today); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// DayRecord returns the record of a campaign day. Days not sealed yet show the live boosted stake only.
func (s *Staker) DayRecord(id thor.Address, day uint64) (campaign.Day, error) {
	c, _, err := s.view(id)
	if err != nil {
		return campaign.Day{}, err
	}
	d, ok := c.Day(day)
	if !ok {
		return campaign.Day{}, reverts.ErrDayOutOfRange
	}
	return *d, nil
}

// PreviewDailyRate returns the reward today distributes if nothing changes before it ends.
func (s *Staker) PreviewDailyRate(id thor.Address) (uint64, error) {
	c, today, err := s.view(id)
	if err != nil {
		return 0, err
	}
	return c.PreviewDailyRate(today), nil
}

// PreviewReward returns the reward owner could claim now.
func (s *Staker) PreviewReward(id, owner thor.Address) (uint64, error) {
	p, _, _, err := s.viewParticipant(id, owner)
	if err != nil {
		return 0, err
	}
	return p.Accrued, nil
}

// PreviewBoostWindow returns which of the last days owner boosted, oldest first, today last.
func (s *Staker) PreviewBoostWindow(id, owner thor.Address) ([participant.WindowSize]bool, error) {
	p, _, today, err := s.viewParticipant(id, owner)
	if err != nil {
		return [participant.WindowSize]bool{}, err
	}
	return p.Boosts.View(today), nil
}
