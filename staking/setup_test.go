// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/custody"
	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/clock"
	"github.com/vechain/stakepool/thor"
)

const (
	startDay = 20_000
	wallet   = uint64(1_000_000_000_000)
)

var (
	owner = thor.BytesToAddress([]byte("owner"))
	asset = thor.BytesToAddress([]byte("asset"))
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
	carol = thor.BytesToAddress([]byte("carol"))
)

type testStaker struct {
	*Staker
	t      *testing.T
	clock  *clock.Manual
	ledger *custody.Ledger
	events *eventlog.EventLog
}

// newTestStaker returns a staker whose clock sits on the day before startDay, with funded wallets.
func newTestStaker(t *testing.T) *testStaker {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	events, err := eventlog.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		events.Close()
	})

	calendar := clock.NewCalendar(clock.DayLength)
	clk := clock.NewManual(calendar.Start(startDay - 1).Add(time.Hour))
	ledger := custody.NewLedger()
	for _, acc := range []thor.Address{owner, alice, bob, carol} {
		require.NoError(t, ledger.Mint(asset, acc, wallet))
	}

	staker := New(store, ledger, clk, calendar, events)
	t.Cleanup(staker.Close)
	return &testStaker{
		Staker: staker,
		t:      t,
		clock:  clk,
		ledger: ledger,
		events: events,
	}
}

// createCampaign creates a funded campaign over [startDay, startDay+days).
func (ts *testStaker) createCampaign(days, budget, minStake uint64, mode campaign.ShareMode) thor.Address {
	cal := ts.Calendar()
	id, err := ts.CreateCampaign(owner, asset, cal.Start(startDay), cal.Start(startDay+days), minStake, mode)
	require.NoError(ts.t, err)
	if budget > 0 {
		require.NoError(ts.t, ts.AddBudget(id, owner, budget))
	}
	return id
}

// setDay moves the clock into the given day.
func (ts *testStaker) setDay(day uint64) {
	ts.clock.Set(ts.Calendar().Start(day).Add(time.Hour))
}

func (ts *testStaker) nextDay() {
	ts.clock.Advance(clock.DayLength)
}

func (ts *testStaker) balance(acc thor.Address) uint64 {
	return ts.ledger.BalanceOf(asset, acc)
}

func (ts *testStaker) campaign(id thor.Address) *campaign.Campaign {
	c, err := ts.Campaign(id)
	require.NoError(ts.t, err)
	return c
}
