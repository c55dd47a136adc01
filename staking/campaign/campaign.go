// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"fmt"

	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/staking/stakes"
	"github.com/vechain/stakepool/thor"
)

// MaxDays bounds the length of a campaign, which bounds the per-day records and
// the work of a single settlement.
const MaxDays = 3650

// Campaign is the pool-wide aggregate of a staking campaign.
type Campaign struct {
	ID           thor.Address
	Owner        thor.Address
	Asset        thor.Address
	StartDay     uint64
	EndDay       uint64
	MinStakeSize uint64
	ShareMode    ShareMode

	Budget        uint64
	Committed     uint64 // reward owed for sealed days, credited or not
	TotalRewarded uint64 // reward credited into participants' Accrued
	// TotalPaid counts every claim out of escrow, principal and reward alike.
	// Reward alone is TotalRewarded.
	TotalPaid         uint64
	TotalRedeemed     uint64
	TotalUnspentCarry uint64

	TotalStaked        uint64
	ActiveParticipants uint64
	Participants       uint64
	TotalStakeEvents   uint64
	TotalBoosts        uint64
	TotalCancellations uint64

	LastSettledDay       uint64
	LastDayWithStake     uint64
	HasStakedDay         bool
	CurrentDailyRate     uint64
	RateBasis            uint64
	RateLocked           bool
	UnspentDailyCarry    uint64
	UnspentRewardedCarry uint64
	DaysWithNoPayout     uint64

	Days []Day
}

// New creates an empty campaign for the days [startDay, endDay).
func New(id, owner, asset thor.Address, startDay, endDay, minStakeSize uint64, mode ShareMode) (*Campaign, error) {
	if endDay <= startDay || endDay-startDay > MaxDays {
		return nil, reverts.ErrInvalidCampaign
	}
	if !mode.Valid() {
		return nil, reverts.ErrInvalidCampaign
	}
	return &Campaign{
		ID:             id,
		Owner:          owner,
		Asset:          asset,
		StartDay:       startDay,
		EndDay:         endDay,
		MinStakeSize:   minStakeSize,
		ShareMode:      mode,
		LastSettledDay: startDay,
		Days:           make([]Day, endDay-startDay),
	}, nil
}

// Clone returns a deep copy.
func (c *Campaign) Clone() *Campaign {
	cpy := *c
	cpy.Days = make([]Day, len(c.Days))
	copy(cpy.Days, c.Days)
	return &cpy
}

func (c *Campaign) String() string {
	return fmt.Sprintf("campaign(%v days=[%d,%d) budget=%d committed=%d staked=%d)",
		c.ID, c.StartDay, c.EndDay, c.Budget, c.Committed, c.TotalStaked)
}

// TotalDays returns the number of campaign days.
func (c *Campaign) TotalDays() uint64 {
	return c.EndDay - c.StartDay
}

func (c *Campaign) IsStarted(today uint64) bool {
	return today >= c.StartDay
}

func (c *Campaign) IsFinished(today uint64) bool {
	return today >= c.EndDay
}

// CheckActive rejects when reward cannot accrue on today.
func (c *Campaign) CheckActive(today uint64) error {
	if !c.IsStarted(today) {
		return reverts.ErrCampaignNotStarted
	}
	if c.IsFinished(today) {
		return reverts.ErrCampaignFinished
	}
	return nil
}

// Remaining returns the budget not yet committed to a sealed day.
func (c *Campaign) Remaining() uint64 {
	return c.Budget - c.Committed
}

// Redeemable returns what the owner may still take back.
func (c *Campaign) Redeemable() uint64 {
	return c.Budget - c.Committed - c.TotalRedeemed + c.unowed()
}

// unowed returns the committed reward nobody can be credited anymore: the campaign
// is sealed to its end and every ledger is closed.
func (c *Campaign) unowed() uint64 {
	if c.LastSettledDay < c.EndDay || c.Participants > 0 {
		return 0
	}
	return c.Committed - c.TotalRewarded
}

// Day returns the record of a campaign day.
func (c *Campaign) Day(day uint64) (*Day, bool) {
	if day < c.StartDay || day >= c.EndDay {
		return nil, false
	}
	return &c.Days[day-c.StartDay], true
}

// Advance seals every day before today that is not sealed yet. It is a no-op when
// called again on the same day.
func (c *Campaign) Advance(today uint64) error {
	target := min(today, c.EndDay)
	for d := c.LastSettledDay; d < target; d++ {
		if err := c.seal(d); err != nil {
			return err
		}
		c.LastSettledDay = d + 1
	}
	return nil
}

func (c *Campaign) seal(d uint64) error {
	rate := c.rateAt(d)
	c.relock(d, rate)

	day := &c.Days[d-c.StartDay]
	day.Rate = min(rate, c.Remaining())
	day.Staked = c.TotalStaked
	if day.Boosted > day.Staked {
		return reverts.Fatal("day %d boosted %d exceeds staked %d", d, day.Boosted, day.Staked)
	}

	if day.Staked == 0 {
		var err error
		if c.UnspentDailyCarry, err = stakes.Add(c.UnspentDailyCarry, day.Rate); err != nil {
			return err
		}
		if c.TotalUnspentCarry, err = stakes.Add(c.TotalUnspentCarry, day.Rate); err != nil {
			return err
		}
		c.DaysWithNoPayout++
		return nil
	}

	owed, err := day.Owed(c.ShareMode)
	if err != nil {
		return err
	}
	if c.Committed, err = stakes.Add(c.Committed, owed); err != nil {
		return err
	}
	if c.UnspentRewardedCarry, err = stakes.Add(c.UnspentRewardedCarry, day.Rate-owed); err != nil {
		return err
	}
	c.LastDayWithStake = d
	c.HasStakedDay = true
	return nil
}

// Credit records that stake earned share on day d. Once all of the day's stake is
// credited, the truncation left over returns to the pool: it is carried into the next
// rate while days remain, and becomes redeemable after the end.
func (c *Campaign) Credit(d, stake, share uint64) (err error) {
	day, ok := c.Day(d)
	if !ok || d >= c.LastSettledDay {
		return reverts.Fatal("crediting unsealed day %d", d)
	}
	if day.Settled, err = stakes.Add(day.Settled, stake); err != nil {
		return err
	}
	if day.Credited, err = stakes.Add(day.Credited, share); err != nil {
		return err
	}
	if day.Settled > day.Staked {
		return reverts.Fatal("day %d settled %d exceeds staked %d", d, day.Settled, day.Staked)
	}
	if day.Settled < day.Staked {
		return nil
	}

	owed, err := day.Owed(c.ShareMode)
	if err != nil {
		return err
	}
	dust, err := stakes.Sub(owed, day.Credited)
	if err != nil {
		return reverts.Fatal("day %d credited %d exceeds owed %d", d, day.Credited, owed)
	}
	if dust == 0 {
		return nil
	}
	if c.Committed, err = stakes.Sub(c.Committed, dust); err != nil {
		return err
	}
	if c.LastSettledDay < c.EndDay {
		c.UnspentRewardedCarry, err = stakes.Add(c.UnspentRewardedCarry, dust)
	}
	return err
}

// stale reports whether the locked rate no longer describes the pool on day d.
func (c *Campaign) stale(d uint64) bool {
	return !c.RateLocked ||
		c.TotalStaked != c.RateBasis ||
		c.UnspentDailyCarry > 0 ||
		c.UnspentRewardedCarry > 0 ||
		d+1 == c.EndDay
}

// rateAt returns the daily rate that applies to day d without touching any state.
func (c *Campaign) rateAt(d uint64) uint64 {
	if !c.stale(d) {
		return c.CurrentDailyRate
	}
	return c.Remaining() / (c.EndDay - d)
}

func (c *Campaign) relock(d uint64, rate uint64) {
	if !c.stale(d) {
		return
	}
	c.CurrentDailyRate = rate
	c.RateBasis = c.TotalStaked
	c.RateLocked = true
	c.UnspentDailyCarry = 0
	c.UnspentRewardedCarry = 0
}

// PreviewDailyRate returns the rate today would be sealed with if nothing
// changed before the end of the day. The campaign must be advanced to today.
func (c *Campaign) PreviewDailyRate(today uint64) uint64 {
	if !c.IsStarted(today) || c.IsFinished(today) {
		return 0
	}
	return min(c.rateAt(today), c.Remaining())
}

// AddStake adds newly earning stake to the pool.
func (c *Campaign) AddStake(amount uint64) (err error) {
	c.TotalStaked, err = stakes.Add(c.TotalStaked, amount)
	return
}

// RemoveStake removes stake from the pool. When the stake was boosted on today
// its boost weight is removed from today's record too.
func (c *Campaign) RemoveStake(today, amount uint64, boostedToday bool) (err error) {
	if c.TotalStaked, err = stakes.Sub(c.TotalStaked, amount); err != nil {
		return err
	}
	if !boostedToday {
		return nil
	}
	day, ok := c.Day(today)
	if !ok {
		return nil
	}
	day.Boosted, err = stakes.Sub(day.Boosted, amount)
	return err
}

// AddBoost records stake boosted on today.
func (c *Campaign) AddBoost(today, amount uint64) (err error) {
	day, ok := c.Day(today)
	if !ok {
		return reverts.ErrCampaignFinished
	}
	if day.Boosted, err = stakes.Add(day.Boosted, amount); err != nil {
		return err
	}
	c.TotalBoosts++
	return nil
}

// AddBudget deposits reward. Deposits are accepted only before the campaign starts.
func (c *Campaign) AddBudget(today, amount uint64) (err error) {
	if c.IsStarted(today) {
		if c.IsFinished(today) {
			return reverts.ErrCampaignFinished
		}
		return reverts.ErrCampaignAlreadyStarted
	}
	if amount == 0 {
		return reverts.ErrBudgetZeroTokens
	}
	c.Budget, err = stakes.Add(c.Budget, amount)
	return
}

// Redeem withdraws uncommitted budget once the campaign is over.
func (c *Campaign) Redeem(today, amount uint64) error {
	if !c.IsFinished(today) {
		return reverts.ErrCampaignNotFinished
	}
	if err := c.Advance(today); err != nil {
		return err
	}
	if amount == 0 {
		return reverts.ErrWithdrawZeroTokens
	}
	if amount > c.Redeemable() {
		return reverts.ErrInsufficientFunds
	}
	c.Committed -= c.unowed()
	c.TotalRedeemed += amount
	return nil
}

// CheckClosable verifies nothing is left in the campaign.
func (c *Campaign) CheckClosable(today uint64) error {
	if !c.IsFinished(today) {
		return reverts.ErrCampaignNotFinished
	}
	if c.Participants > 0 || c.TotalStaked > 0 || c.Redeemable() > 0 {
		return reverts.ErrAccountNotEmpty
	}
	return nil
}

// CheckInvariants verifies the bookkeeping bounds of the campaign.
func (c *Campaign) CheckInvariants() error {
	if c.TotalRewarded > c.Committed {
		return reverts.Fatal("rewarded %d exceeds committed %d", c.TotalRewarded, c.Committed)
	}
	spent, err := stakes.Add(c.Committed, c.TotalRedeemed)
	if err != nil {
		return err
	}
	if spent > c.Budget {
		return reverts.Fatal("committed %d and redeemed %d exceed budget %d", c.Committed, c.TotalRedeemed, c.Budget)
	}
	return nil
}
