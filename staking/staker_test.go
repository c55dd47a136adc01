// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/custody"
	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/clock"
	"github.com/vechain/stakepool/staking/participant"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/thor"
)

func TestCreateCampaign(t *testing.T) {
	ts := newTestStaker(t)
	cal := ts.Calendar()

	id1, err := ts.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay+10), 5, campaign.ShareWeighted)
	require.NoError(t, err)
	id2, err := ts.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay+10), 5, campaign.ShareHalved)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, thor.CreateCampaignAddress(owner, 0), id1)

	c := ts.campaign(id2)
	assert.Equal(t, owner, c.Owner)
	assert.Equal(t, asset, c.Asset)
	assert.Equal(t, uint64(startDay), c.StartDay)
	assert.Equal(t, uint64(startDay+10), c.EndDay)
	assert.Equal(t, campaign.ShareHalved, c.ShareMode)

	_, err = ts.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay).Add(time.Hour), 5, campaign.ShareWeighted)
	assert.ErrorIs(t, err, reverts.ErrInvalidCampaign)

	all, err := ts.Campaigns()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateCampaign_AlreadyInitialized(t *testing.T) {
	ts := newTestStaker(t)
	cal := ts.Calendar()

	// a campaign stored under the address the next nonce derives
	c, err := campaign.New(thor.CreateCampaignAddress(owner, 0), owner, asset, startDay, startDay+1, 0, campaign.ShareWeighted)
	require.NoError(t, err)
	w := ts.storage.newWriter()
	require.NoError(t, w.putCampaign(c))
	require.NoError(t, w.commit())

	_, err = ts.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay+10), 5, campaign.ShareWeighted)
	assert.ErrorIs(t, err, reverts.ErrAlreadyInitialized)
}

func TestAddBudget(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000, 1, campaign.ShareWeighted)

	assert.ErrorIs(t, ts.AddBudget(id, alice, 10), reverts.ErrWrongAuthority)
	assert.ErrorIs(t, ts.AddBudget(id, owner, 0), reverts.ErrBudgetZeroTokens)
	require.NoError(t, ts.AddBudget(id, owner, 500))
	assert.Equal(t, uint64(1_500), ts.campaign(id).Budget)
	assert.Equal(t, uint64(1_500), ts.balance(id))
	assert.Equal(t, wallet-1_500, ts.balance(owner))

	ts.setDay(startDay)
	assert.ErrorIs(t, ts.AddBudget(id, owner, 10), reverts.ErrCampaignAlreadyStarted)
	ts.setDay(startDay + 10)
	assert.ErrorIs(t, ts.AddBudget(id, owner, 10), reverts.ErrCampaignFinished)
	assert.Equal(t, uint64(1_500), ts.balance(id))
}

func TestStake_Rejections(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000, 100, campaign.ShareWeighted)

	assert.ErrorIs(t, ts.Stake(id, alice, 100), reverts.ErrCampaignNotStarted)
	assert.ErrorIs(t, ts.Stake(thor.BytesToAddress([]byte("nope")), alice, 100), reverts.ErrCampaignNotFound)

	ts.setDay(startDay)
	assert.ErrorIs(t, ts.Stake(id, alice, 0), reverts.ErrStakeZeroTokens)
	assert.ErrorIs(t, ts.Stake(id, alice, 99), reverts.ErrSmallStakeSize)

	// custody refuses, nothing is written
	err := ts.Stake(id, alice, wallet+1)
	assert.ErrorIs(t, err, custody.ErrInsufficientBalance)
	_, err = ts.Participant(id, alice)
	assert.ErrorIs(t, err, reverts.ErrParticipantUnknown)
	assert.Zero(t, ts.campaign(id).TotalStaked)

	require.NoError(t, ts.Stake(id, alice, 100))
	assert.ErrorIs(t, ts.Stake(id, alice, 0), reverts.ErrPendingZeroTokens)

	ts.setDay(startDay + 10)
	assert.ErrorIs(t, ts.Stake(id, alice, 100), reverts.ErrCampaignFinished)

	c := ts.campaign(id)
	assert.Equal(t, uint64(1), c.Participants)
	assert.Equal(t, uint64(1), c.TotalStakeEvents)
}

// Two equal stakers share a 10 day, 100M campaign without boosting.
func TestScenario_EqualStakers(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 100_000_000, 1, campaign.ShareWeighted)

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 20_000))
	require.NoError(t, ts.Stake(id, bob, 20_000))

	rate, err := ts.PreviewDailyRate(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), rate)

	ts.setDay(startDay + 7)
	reward, err := ts.PreviewReward(id, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(35_000_000), reward)
	again, err := ts.PreviewReward(id, alice)
	require.NoError(t, err)
	assert.Equal(t, reward, again)

	p, err := ts.Participant(id, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), p.DailyRate)

	balance, err := p.Balance()
	require.NoError(t, err)
	assert.Equal(t, uint64(35_020_000), balance)
	require.NoError(t, ts.Claim(id, alice, balance))

	c := ts.campaign(id)
	assert.Equal(t, uint64(35_020_000), c.TotalPaid)
	assert.Equal(t, uint64(20_000), c.TotalStaked)
	assert.Equal(t, uint64(1), c.ActiveParticipants)
	assert.Equal(t, wallet-20_000+35_020_000, ts.balance(alice))

	require.NoError(t, ts.CloseParticipant(id, alice))
	_, err = ts.Participant(id, alice)
	assert.ErrorIs(t, err, reverts.ErrParticipantUnknown)

	// bob alone takes the remaining days
	ts.setDay(startDay + 30)
	reward, err = ts.PreviewReward(id, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(35_000_000+30_000_000), reward)
	c = ts.campaign(id)
	assert.Equal(t, c.Budget, c.Committed)
}

// A participant boosting every day earns more than an unboosted one with the same stake.
func TestScenario_BoostEveryDay(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 100_000_000, 1, campaign.ShareWeighted)

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, carol, 20_000))
	require.NoError(t, ts.Stake(id, alice, 20_000))

	window, err := ts.PreviewBoostWindow(id, carol)
	require.NoError(t, err)
	assert.Equal(t, [participant.WindowSize]bool{}, window)

	for range 7 {
		require.NoError(t, ts.Boost(id, carol))
		assert.ErrorIs(t, ts.Boost(id, carol), reverts.ErrAlreadyBoosted)
		if ts.Today() < startDay+6 {
			ts.nextDay()
		}
	}
	window, err = ts.PreviewBoostWindow(id, carol)
	require.NoError(t, err)
	assert.Equal(t, [participant.WindowSize]bool{true, true, true, true, true, true, true}, window)

	ts.nextDay()
	window, err = ts.PreviewBoostWindow(id, carol)
	require.NoError(t, err)
	assert.Equal(t, [participant.WindowSize]bool{true, true, true, true, true, true, false}, window)

	boosted, err := ts.PreviewReward(id, carol)
	require.NoError(t, err)
	plain, err := ts.PreviewReward(id, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(7*6_666_666), boosted)
	assert.Equal(t, uint64(7*3_333_333), plain)

	before := ts.balance(carol)
	require.NoError(t, ts.Claim(id, carol, boosted+20_000))
	claimed := ts.balance(carol) - before
	assert.Greater(t, claimed, uint64(35_020_000))

	c := ts.campaign(id)
	assert.Equal(t, uint64(7), c.TotalBoosts)
	day, err := ts.DayRecord(id, startDay+3)
	require.NoError(t, err)
	// carol's share is credited, alice's is not yet
	assert.Equal(t, campaign.Day{Rate: 10_000_000, Staked: 40_000, Boosted: 20_000, Settled: 20_000, Credited: 6_666_666}, day)
}

// Cancelling and claiming the pending funds returns the whole stake and keeps the reward.
func TestScenario_CancelThenClaim(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 100_000_000, 1, campaign.ShareWeighted)

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 20_000))
	require.NoError(t, ts.Stake(id, bob, 20_000))

	ts.setDay(startDay + 3)
	accrued, err := ts.PreviewReward(id, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(15_000_000), accrued)

	require.NoError(t, ts.Cancel(id, alice))
	assert.ErrorIs(t, ts.Cancel(id, alice), reverts.ErrNoActiveStake)
	assert.ErrorIs(t, ts.Boost(id, alice), reverts.ErrNoActiveStake)

	before := ts.balance(alice)
	require.NoError(t, ts.Claim(id, alice, 20_000))
	assert.Equal(t, before+20_000, ts.balance(alice))

	// the claim drew on accrued first, nothing of the reward is lost
	p, err := ts.Participant(id, alice)
	require.NoError(t, err)
	assert.Equal(t, accrued-20_000, p.Accrued)
	assert.Equal(t, uint64(20_000), p.Pending)
	assert.Zero(t, p.Staked)
	assert.Equal(t, accrued, p.TotalRewarded)

	ts.setDay(startDay + 5)
	p, err = ts.Participant(id, alice)
	require.NoError(t, err)
	balance, err := p.Balance()
	require.NoError(t, err)
	assert.Equal(t, accrued, balance)
	c := ts.campaign(id)
	assert.Equal(t, uint64(1), c.TotalCancellations)
	assert.Equal(t, uint64(20_000), c.TotalStaked)
}

// Redeeming before the end or beyond what is left fails and changes nothing.
func TestScenario_Redeem(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000, 1, campaign.ShareWeighted)

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 10))
	ts.setDay(startDay + 5)
	require.NoError(t, ts.Cancel(id, alice))

	ts.setDay(startDay + 9)
	assert.ErrorIs(t, ts.RedeemUnspent(id, owner, 1), reverts.ErrCampaignNotFinished)

	ts.setDay(startDay + 10)
	assert.ErrorIs(t, ts.RedeemUnspent(id, alice, 1), reverts.ErrWrongAuthority)
	assert.ErrorIs(t, ts.RedeemUnspent(id, owner, 0), reverts.ErrWithdrawZeroTokens)
	assert.ErrorIs(t, ts.RedeemUnspent(id, owner, 501), reverts.ErrInsufficientFunds)
	require.NoError(t, ts.RedeemUnspent(id, owner, 500))

	c := ts.campaign(id)
	ownerBalance, escrow := ts.balance(owner), ts.balance(id)
	assert.ErrorIs(t, ts.RedeemUnspent(id, owner, 1), reverts.ErrInsufficientFunds)
	assert.Equal(t, c, ts.campaign(id))
	assert.Equal(t, ownerBalance, ts.balance(owner))
	assert.Equal(t, escrow, ts.balance(id))

	assert.Equal(t, uint64(500), c.TotalRedeemed)
	assert.Equal(t, uint64(500), c.Committed)
	assert.Equal(t, uint64(5), c.DaysWithNoPayout)
	assert.Equal(t, uint64(510), escrow)
}

func TestClose(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(4, 1_000, 1, campaign.ShareWeighted)

	assert.ErrorIs(t, ts.CloseParticipant(id, alice), reverts.ErrParticipantUnknown)

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 10))

	err := ts.CloseParticipant(id, alice)
	assert.ErrorIs(t, err, reverts.ErrAccountNotEmpty)
	assert.True(t, reverts.IsFatalErr(err))

	ts.setDay(startDay + 4)
	assert.ErrorIs(t, ts.CloseCampaign(id, alice), reverts.ErrWrongAuthority)
	assert.ErrorIs(t, ts.CloseCampaign(id, owner), reverts.ErrAccountNotEmpty)

	require.NoError(t, ts.Claim(id, alice, 1_010))
	require.NoError(t, ts.CloseParticipant(id, alice))
	require.NoError(t, ts.CloseCampaign(id, owner))

	_, err = ts.Campaign(id)
	assert.ErrorIs(t, err, reverts.ErrCampaignNotFound)
	assert.Zero(t, ts.balance(id))
	assert.Equal(t, wallet+1_000, ts.balance(alice))
}

// Shares too small to be credited go back to the pool, and finally to the owner.
func TestCloseCampaign_ReturnsTruncation(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 10, 1, campaign.ShareWeighted)
	stakers := []thor.Address{alice, bob, carol}

	ts.setDay(startDay)
	for _, acc := range stakers {
		require.NoError(t, ts.Stake(id, acc, 1))
	}

	// settling everybody returns the first five days to the pool
	ts.setDay(startDay + 5)
	for _, acc := range stakers {
		require.NoError(t, ts.Cancel(id, acc))
		require.NoError(t, ts.Stake(id, acc, 0))
	}
	c := ts.campaign(id)
	assert.Zero(t, c.Committed)
	assert.Equal(t, uint64(5), c.UnspentRewardedCarry)

	ts.setDay(startDay + 6)
	day, err := ts.DayRecord(id, startDay+5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), day.Rate)

	ts.setDay(startDay + 10)
	for _, acc := range stakers {
		require.NoError(t, ts.Claim(id, acc, 1))
		require.NoError(t, ts.CloseParticipant(id, acc))
	}

	c = ts.campaign(id)
	assert.Zero(t, c.TotalRewarded)
	assert.Zero(t, c.Committed)
	assert.Equal(t, uint64(10), c.Redeemable())
	assert.ErrorIs(t, ts.CloseCampaign(id, owner), reverts.ErrAccountNotEmpty)

	require.NoError(t, ts.RedeemUnspent(id, owner, 10))
	require.NoError(t, ts.CloseCampaign(id, owner))
	assert.Zero(t, ts.balance(id))
	assert.Equal(t, wallet, ts.balance(owner))
}

func TestTransferAccruedToPending(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000, 1, campaign.ShareWeighted)

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 10))
	ts.setDay(startDay + 2)

	assert.ErrorIs(t, ts.TransferAccruedToPending(id, alice, 201), reverts.ErrInsufficientFunds)
	require.NoError(t, ts.TransferAccruedToPending(id, alice, 200))

	ts.setDay(startDay + 3)
	p, err := ts.Participant(id, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(210), p.Staked)
	assert.Equal(t, uint64(100), p.Accrued)

	ts.setDay(startDay + 10)
	assert.ErrorIs(t, ts.TransferAccruedToPending(id, alice, 1), reverts.ErrCampaignFinished)
}

func TestNoStakeCarry(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000_000, 1, campaign.ShareWeighted)

	ts.setDay(startDay + 4)
	c := ts.campaign(id)
	assert.Equal(t, uint64(4), c.DaysWithNoPayout)
	assert.Zero(t, c.Committed)
	assert.Equal(t, uint64(100_000+111_111+125_000+142_857), c.TotalUnspentCarry)

	require.NoError(t, ts.Stake(id, alice, 7))
	require.NoError(t, ts.Stake(id, bob, 3))

	ts.setDay(startDay + 10)
	a, err := ts.PreviewReward(id, alice)
	require.NoError(t, err)
	b, err := ts.PreviewReward(id, bob)
	require.NoError(t, err)

	c = ts.campaign(id)
	assert.Equal(t, c.Budget, c.Committed)
	assert.LessOrEqual(t, a+b, c.Budget)
	// one unit of truncation per participant per day at most
	assert.GreaterOrEqual(t, a+b, c.Budget-2*6)
}

func TestViews(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000, 1, campaign.ShareWeighted)

	_, err := ts.DayRecord(id, startDay-1)
	assert.ErrorIs(t, err, reverts.ErrDayOutOfRange)
	_, err = ts.DayRecord(id, startDay+10)
	assert.ErrorIs(t, err, reverts.ErrDayOutOfRange)
	_, err = ts.PreviewReward(id, alice)
	assert.ErrorIs(t, err, reverts.ErrParticipantUnknown)
	_, err = ts.PreviewDailyRate(thor.Address{})
	assert.ErrorIs(t, err, reverts.ErrCampaignNotFound)

	rate, err := ts.PreviewDailyRate(id)
	require.NoError(t, err)
	assert.Zero(t, rate, "not started")

	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 10))
	require.NoError(t, ts.Stake(id, bob, 30))
	ps, err := ts.Participants(id)
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	ts.setDay(startDay + 1)
	day, err := ts.DayRecord(id, startDay)
	require.NoError(t, err)
	assert.Equal(t, campaign.Day{Rate: 100, Staked: 40}, day)

	// previews do not persist the settlement
	stored, err := ts.storage.getCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(startDay), stored.LastSettledDay)
}

func TestEvents(t *testing.T) {
	ts := newTestStaker(t)

	ch := make(chan *eventlog.Event, 16)
	sub := ts.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	id := ts.createCampaign(10, 1_000, 1, campaign.ShareWeighted)
	ts.setDay(startDay)
	require.NoError(t, ts.Stake(id, alice, 10))
	require.NoError(t, ts.Boost(id, alice))
	assert.Error(t, ts.Boost(id, alice))

	var kinds []eventlog.Kind
	for range 4 {
		select {
		case ev := <-ch:
			kinds = append(kinds, ev.Kind)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, []eventlog.Kind{eventlog.KindCreate, eventlog.KindAddBudget, eventlog.KindStake, eventlog.KindBoost}, kinds)

	stored, err := ts.events.Filter(t.Context(), &eventlog.Filter{Campaign: &id})
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, alice, stored[2].Account)
	assert.Equal(t, uint64(10), stored[2].Amount)
	assert.Equal(t, uint64(startDay), stored[3].Day)
	assert.Equal(t, uint64(10), stored[3].Amount)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	store, err := lvldb.New(path, lvldb.Options{})
	require.NoError(t, err)

	cal := clock.NewCalendar(clock.DayLength)
	clk := clock.NewManual(cal.Start(startDay))
	ledger := custody.NewLedger()
	require.NoError(t, ledger.Mint(asset, alice, 100))

	s := New(store, ledger, clk, cal, nil)
	id, err := s.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay+5), 1, campaign.ShareWeighted)
	require.NoError(t, err)
	require.NoError(t, s.Stake(id, alice, 100))
	want, err := s.Participant(id, alice)
	require.NoError(t, err)
	s.Close()
	require.NoError(t, store.Close())

	store, err = lvldb.New(path, lvldb.Options{})
	require.NoError(t, err)
	defer store.Close()
	s = New(store, ledger, clk, cal, nil)
	defer s.Close()

	got, err := s.Participant(id, alice)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	c, err := s.Campaign(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), c.TotalStaked)

	// the nonce survived too
	id2, err := s.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay+5), 1, campaign.ShareWeighted)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestConcurrentStakes(t *testing.T) {
	ts := newTestStaker(t)
	id := ts.createCampaign(10, 1_000, 1, campaign.ShareWeighted)
	ts.setDay(startDay)

	var (
		wg      sync.WaitGroup
		callers []thor.Address
	)
	for i := range 32 {
		caller := thor.BytesToAddress(fmt.Appendf(nil, "staker-%d", i))
		require.NoError(t, ts.ledger.Mint(asset, caller, 100))
		callers = append(callers, caller)
	}
	for _, caller := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ts.Stake(id, caller, 60))
			assert.NoError(t, ts.Stake(id, caller, 40))
		}()
	}
	wg.Wait()

	c := ts.campaign(id)
	assert.Equal(t, uint64(32*60), c.TotalStaked)
	assert.Equal(t, uint64(32), c.Participants)
	assert.Equal(t, uint64(32), c.ActiveParticipants)
	assert.Equal(t, uint64(1_000+32*100), ts.balance(id))
}
