// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/staking/stakes"
)

// ShareMode decides how the rate of a day is split among its stake.
type ShareMode uint8

const (
	// ShareHalved credits half the pro-rata rate, or the full rate when boosted.
	ShareHalved ShareMode = iota
	// ShareWeighted splits the full rate by stake, a boosted stake weighing twice.
	ShareWeighted
)

func (m ShareMode) Valid() bool {
	return m == ShareWeighted || m == ShareHalved
}

func (m ShareMode) String() string {
	switch m {
	case ShareHalved:
		return "halved"
	case ShareWeighted:
		return "weighted"
	default:
		return "unknown"
	}
}

// ParseShareMode is the inverse of String; the empty string selects ShareHalved.
func ParseShareMode(s string) (ShareMode, bool) {
	switch s {
	case "", "halved":
		return ShareHalved, true
	case "weighted":
		return ShareWeighted, true
	default:
		return 0, false
	}
}

// Day is the sealed record of one campaign day.
type Day struct {
	Rate    uint64 // reward distributed on the day
	Staked  uint64 // stake earning on the day
	Boosted uint64 // part of Staked that was boosted

	Settled  uint64 // part of Staked whose share was credited
	Credited uint64 // reward credited for the day so far
}

// denominator returns the weight all of the day's stake adds up to, nil when nothing was staked.
func (d *Day) denominator(mode ShareMode) *uint256.Int {
	if d.Staked == 0 {
		return nil
	}
	if mode == ShareHalved {
		return stakes.Double(d.Staked)
	}
	return stakes.Sum(d.Staked, d.Boosted)
}

// Share returns what stake earned on the day.
func (d *Day) Share(mode ShareMode, stake uint64, boosted bool) (uint64, error) {
	if stake == 0 || d.Rate == 0 {
		return 0, nil
	}
	mul := uint64(1)
	if boosted {
		mul = 2
	}
	return stakes.MulDiv(d.Rate, stake, mul, d.denominator(mode))
}

// Owed returns the part of the rate the day's stake is entitled to.
func (d *Day) Owed(mode ShareMode) (uint64, error) {
	if d.Staked == 0 {
		return 0, nil
	}
	if mode == ShareWeighted {
		return d.Rate, nil
	}
	weight, err := stakes.Add(d.Staked, d.Boosted)
	if err != nil {
		return 0, err
	}
	return stakes.MulDiv(d.Rate, weight, 1, d.denominator(mode))
}
