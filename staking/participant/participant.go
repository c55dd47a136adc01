// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package participant

import (
	"fmt"

	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/staking/stakes"
	"github.com/vechain/stakepool/thor"
)

// Participant is one owner's ledger within a campaign.
type Participant struct {
	Owner    thor.Address
	Campaign thor.Address

	Active      bool
	ActiveSince uint64 // meaningful only while Active
	SettledDay  uint64 // first day not accrued yet

	Staked    uint64
	Pending   uint64
	Accrued   uint64
	DailyRate uint64

	TotalStaked   uint64
	TotalRewarded uint64
	TotalClaimed  uint64
	TotalBoosts   uint64

	Boosts BoostWindow
}

// New returns an empty ledger, settled up to today.
func New(owner, campaignID thor.Address, today uint64) *Participant {
	return &Participant{
		Owner:      owner,
		Campaign:   campaignID,
		SettledDay: today,
	}
}

func (p *Participant) Clone() *Participant {
	cpy := *p
	return &cpy
}

func (p *Participant) String() string {
	return fmt.Sprintf("participant(%v staked=%d pending=%d accrued=%d)", p.Owner, p.Staked, p.Pending, p.Accrued)
}

// HasActiveStake reports whether the ledger earns reward.
func (p *Participant) HasActiveStake() bool {
	return p.Active && p.Staked > 0
}

// IsEmpty reports whether the ledger holds no funds.
func (p *Participant) IsEmpty() bool {
	return p.Staked == 0 && p.Pending == 0 && p.Accrued == 0
}

// Balance returns everything the owner could claim.
func (p *Participant) Balance() (uint64, error) {
	sum, err := stakes.Add(p.Staked, p.Pending)
	if err != nil {
		return 0, err
	}
	return stakes.Add(sum, p.Accrued)
}

// Settle credits the reward of every sealed day since the last settlement. The campaign
// must be advanced to today beforehand. Returns the amount credited.
func (p *Participant) Settle(c *campaign.Campaign, today uint64) (uint64, error) {
	target := min(today, c.EndDay)
	if target <= p.SettledDay {
		p.refreshDailyRate(c, today)
		return 0, nil
	}
	if c.LastSettledDay < target {
		return 0, reverts.Fatal("campaign sealed up to day %d, settling day %d", c.LastSettledDay, target)
	}

	var (
		earned uint64
		err    error
	)
	if p.HasActiveStake() {
		for d := max(p.ActiveSince, p.SettledDay); d < target; d++ {
			day, ok := c.Day(d)
			if !ok {
				continue
			}
			share, err := day.Share(c.ShareMode, p.Staked, p.Boosts.IsBoosted(d))
			if err != nil {
				return 0, err
			}
			if err := c.Credit(d, p.Staked, share); err != nil {
				return 0, err
			}
			if earned, err = stakes.Add(earned, share); err != nil {
				return 0, err
			}
		}
	}
	if p.Accrued, err = stakes.Add(p.Accrued, earned); err != nil {
		return 0, err
	}
	if p.TotalRewarded, err = stakes.Add(p.TotalRewarded, earned); err != nil {
		return 0, err
	}
	if c.TotalRewarded, err = stakes.Add(c.TotalRewarded, earned); err != nil {
		return 0, err
	}

	if p.HasActiveStake() {
		if p.Pending > 0 {
			if err := p.activate(c, p.Pending); err != nil {
				return 0, err
			}
			p.Pending = 0
		}
		p.ActiveSince = target
	}
	p.SettledDay = target
	p.refreshDailyRate(c, today)
	return earned, nil
}

// activate moves amount into the earning stake.
func (p *Participant) activate(c *campaign.Campaign, amount uint64) (err error) {
	if p.Staked, err = stakes.Add(p.Staked, amount); err != nil {
		return err
	}
	if p.TotalStaked, err = stakes.Add(p.TotalStaked, amount); err != nil {
		return err
	}
	return c.AddStake(amount)
}

// refreshDailyRate estimates what the stake earns today if nothing changes before the day is sealed.
func (p *Participant) refreshDailyRate(c *campaign.Campaign, today uint64) {
	p.DailyRate = 0
	if !p.HasActiveStake() {
		return
	}
	live, ok := c.Day(today)
	if !ok {
		return
	}
	day := campaign.Day{
		Rate:    c.PreviewDailyRate(today),
		Staked:  c.TotalStaked,
		Boosted: live.Boosted,
	}
	if share, err := day.Share(c.ShareMode, p.Staked, p.Boosts.IsBoosted(today)); err == nil {
		p.DailyRate = share
	}
}

// Stake starts a new stake, merging the pending funds, or tops up pending when a stake is active.
func (p *Participant) Stake(c *campaign.Campaign, today, amount uint64) (err error) {
	if err := c.CheckActive(today); err != nil {
		return err
	}
	if p.HasActiveStake() {
		if amount == 0 {
			return reverts.ErrPendingZeroTokens
		}
		if p.Pending, err = stakes.Add(p.Pending, amount); err != nil {
			return err
		}
		c.TotalStakeEvents++
		p.refreshDailyRate(c, today)
		return nil
	}

	total, err := stakes.Add(p.Pending, amount)
	if err != nil {
		return err
	}
	if total == 0 {
		return reverts.ErrStakeZeroTokens
	}
	if total < c.MinStakeSize {
		return reverts.ErrSmallStakeSize
	}
	p.Pending = 0
	p.Staked = 0
	if err := p.activate(c, total); err != nil {
		return err
	}
	p.Active = true
	p.ActiveSince = today

	c.ActiveParticipants++
	c.TotalStakeEvents++
	p.refreshDailyRate(c, today)
	return nil
}

// Boost doubles the weight of the stake for today.
func (p *Participant) Boost(c *campaign.Campaign, today uint64) error {
	if err := c.CheckActive(today); err != nil {
		return err
	}
	if !p.HasActiveStake() {
		return reverts.ErrNoActiveStake
	}
	if p.Boosts.IsBoosted(today) {
		return reverts.ErrAlreadyBoosted
	}
	if err := c.AddBoost(today, p.Staked); err != nil {
		return err
	}
	p.Boosts.Mark(today)
	p.TotalBoosts++
	p.refreshDailyRate(c, today)
	return nil
}

// Cancel stops the stake; the staked funds become pending and earn nothing more.
func (p *Participant) Cancel(c *campaign.Campaign, today uint64) error {
	if !p.HasActiveStake() {
		return reverts.ErrNoActiveStake
	}
	if err := c.RemoveStake(today, p.Staked, p.Boosts.IsBoosted(today)); err != nil {
		return err
	}
	pending, err := stakes.Add(p.Pending, p.Staked)
	if err != nil {
		return err
	}
	p.Pending = pending
	p.Staked = 0
	p.Active = false
	p.ActiveSince = 0
	p.Boosts.Unmark(today)
	p.DailyRate = 0

	c.ActiveParticipants--
	c.TotalCancellations++
	return nil
}

// Claim withdraws amount, drawing from accrued, then pending, then the active stake,
// which is cancelled when touched.
func (p *Participant) Claim(c *campaign.Campaign, today, amount uint64) error {
	if amount == 0 {
		return reverts.ErrWithdrawZeroTokens
	}
	balance, err := p.Balance()
	if err != nil {
		return err
	}
	if amount > balance {
		return reverts.ErrInsufficientFunds
	}
	if amount > p.Accrued+p.Pending {
		if err := p.Cancel(c, today); err != nil {
			return err
		}
	}

	fromAccrued := min(amount, p.Accrued)
	p.Accrued -= fromAccrued
	p.Pending -= amount - fromAccrued

	if p.TotalClaimed, err = stakes.Add(p.TotalClaimed, amount); err != nil {
		return err
	}
	c.TotalPaid, err = stakes.Add(c.TotalPaid, amount)
	return err
}

// TransferAccruedToPending moves reward into pending, to be staked again.
func (p *Participant) TransferAccruedToPending(c *campaign.Campaign, today, amount uint64) (err error) {
	if c.IsFinished(today) {
		return reverts.ErrCampaignFinished
	}
	if amount == 0 {
		return reverts.ErrPendingZeroTokens
	}
	if amount > p.Accrued {
		return reverts.ErrInsufficientFunds
	}
	if p.Pending, err = stakes.Add(p.Pending, amount); err != nil {
		return err
	}
	p.Accrued -= amount
	return nil
}

// CheckClosable verifies the ledger holds nothing.
func (p *Participant) CheckClosable() error {
	if !p.IsEmpty() {
		return reverts.ErrAccountNotEmpty
	}
	return nil
}
