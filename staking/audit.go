// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/staking/stakes"
	"github.com/vechain/stakepool/thor"
)

// Audit summarizes the stored records of a campaign.
type Audit struct {
	Campaign     *campaign.Campaign
	Participants uint64
	TotalStaked  uint64
	// Liabilities is what the escrow owes: every ledger balance plus the redeemable budget.
	// The escrow must hold at least this much.
	Liabilities uint64
}

// Audit cross-checks a campaign against its ledgers as stored, without advancing either.
func (s *Staker) Audit(id thor.Address) (*Audit, error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.storage.getCampaign(id)
	if err != nil {
		return nil, err
	}
	if err := c.CheckInvariants(); err != nil {
		return nil, err
	}
	ps, err := s.storage.participants(id)
	if err != nil {
		return nil, err
	}

	a := &Audit{
		Campaign:     c,
		Participants: uint64(len(ps)),
		Liabilities:  c.Redeemable(),
	}
	for _, p := range ps {
		if a.TotalStaked, err = stakes.Add(a.TotalStaked, p.Staked); err != nil {
			return nil, err
		}
		bal, err := p.Balance()
		if err != nil {
			return nil, err
		}
		if a.Liabilities, err = stakes.Add(a.Liabilities, bal); err != nil {
			return nil, err
		}
	}

	if a.Participants != c.Participants {
		return nil, reverts.Fatal("campaign %v counts %d participants, %d stored", id, c.Participants, a.Participants)
	}
	if a.TotalStaked != c.TotalStaked {
		return nil, reverts.Fatal("campaign %v total staked %d, ledgers hold %d", id, c.TotalStaked, a.TotalStaked)
	}
	return a, nil
}
