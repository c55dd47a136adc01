// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"fmt"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/thor"
)

type step struct {
	Op     uint8
	Who    uint8
	Amount uint16
	Wait   bool
}

// checkEscrow verifies the escrow covers every participant balance and the redeemable budget.
func checkEscrow(t *testing.T, ts *testStaker, id thor.Address) {
	c := ts.campaign(id)
	require.NoError(t, c.CheckInvariants())

	var owed uint64
	for _, acc := range []thor.Address{alice, bob, carol} {
		p, err := ts.Participant(id, acc)
		if errors.Is(err, reverts.ErrParticipantUnknown) {
			continue
		}
		require.NoError(t, err)
		balance, err := p.Balance()
		require.NoError(t, err)
		owed += balance
	}
	require.GreaterOrEqual(t, ts.balance(id), owed+c.Redeemable(), "escrow short of balances")
}

func TestConservation(t *testing.T) {
	const (
		days   = 7
		budget = 1_000_000
	)
	accounts := []thor.Address{alice, bob, carol}

	for seed := range int64(24) {
		mode := campaign.ShareMode(seed % 2)
		t.Run(fmt.Sprintf("seed-%d-%v", seed, mode), func(t *testing.T) {
			ts := newTestStaker(t)
			id := ts.createCampaign(days, budget, 1, mode)
			ts.setDay(startDay)

			f := fuzz.NewWithSeed(seed)
			for range 80 {
				var s step
				f.Fuzz(&s)
				who := accounts[int(s.Who)%len(accounts)]
				amount := uint64(s.Amount)

				var err error
				switch s.Op % 6 {
				case 0, 1:
					err = ts.Stake(id, who, amount+1)
				case 2:
					err = ts.Boost(id, who)
				case 3:
					err = ts.Cancel(id, who)
				case 4:
					err = ts.Claim(id, who, amount)
				case 5:
					err = ts.TransferAccruedToPending(id, who, amount)
				}
				if err != nil {
					require.True(t, reverts.IsRevertErr(err), "unexpected error: %v", err)
				}
				checkEscrow(t, ts, id)

				if s.Wait {
					ts.nextDay()
				}
			}

			// pay everybody out once the campaign is over
			ts.setDay(startDay + days)
			for _, acc := range accounts {
				p, err := ts.Participant(id, acc)
				if errors.Is(err, reverts.ErrParticipantUnknown) {
					continue
				}
				require.NoError(t, err)
				balance, err := p.Balance()
				require.NoError(t, err)
				if balance > 0 {
					require.NoError(t, ts.Claim(id, acc, balance))
				}
				require.NoError(t, ts.CloseParticipant(id, acc))
			}
			c := ts.campaign(id)
			assert.Equal(t, c.TotalRewarded, c.Committed, "every credit settled")
			if redeemable := c.Redeemable(); redeemable > 0 {
				require.NoError(t, ts.RedeemUnspent(id, owner, redeemable))
			}

			c = ts.campaign(id)
			assert.Equal(t, c.Budget, c.TotalRewarded+c.TotalRedeemed)
			assert.Equal(t, uint64(days), c.LastSettledDay-c.StartDay)

			require.NoError(t, ts.CloseCampaign(id, owner))
			assert.Zero(t, ts.balance(id), "escrow emptied")
		})
	}
}
