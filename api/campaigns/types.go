// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaigns

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/participant"
	"github.com/vechain/stakepool/thor"
)

// CreateCampaign is the body of a campaign creation. Start and End are unix seconds.
type CreateCampaign struct {
	Owner        thor.Address         `json:"owner"`
	Asset        thor.Address         `json:"asset"`
	Start        uint64               `json:"start"`
	End          uint64               `json:"end"`
	MinStakeSize *math.HexOrDecimal64 `json:"minStakeSize"`
	ShareMode    string               `json:"shareMode"`
}

type Created struct {
	ID thor.Address `json:"id"`
}

// Amount is the body of operations moving funds.
type Amount struct {
	Caller thor.Address         `json:"caller"`
	Amount *math.HexOrDecimal64 `json:"amount"`
}

// Caller is the body of owner operations without an amount.
type Caller struct {
	Caller thor.Address `json:"caller"`
}

type Campaign struct {
	ID                 thor.Address        `json:"id"`
	Owner              thor.Address        `json:"owner"`
	Asset              thor.Address        `json:"asset"`
	StartDay           uint64              `json:"startDay"`
	EndDay             uint64              `json:"endDay"`
	MinStakeSize       math.HexOrDecimal64 `json:"minStakeSize"`
	ShareMode          string              `json:"shareMode"`
	Budget             math.HexOrDecimal64 `json:"budget"`
	Committed          math.HexOrDecimal64 `json:"committed"`
	TotalRewarded      math.HexOrDecimal64 `json:"totalRewarded"`
	TotalPaid          math.HexOrDecimal64 `json:"totalPaid"`
	TotalRedeemed      math.HexOrDecimal64 `json:"totalRedeemed"`
	TotalUnspentCarry  math.HexOrDecimal64 `json:"totalUnspentCarry"`
	Redeemable         math.HexOrDecimal64 `json:"redeemable"`
	TotalStaked        math.HexOrDecimal64 `json:"totalStaked"`
	ActiveParticipants uint64              `json:"activeParticipants"`
	Participants       uint64              `json:"participants"`
	TotalStakeEvents   uint64              `json:"totalStakeEvents"`
	TotalBoosts        uint64              `json:"totalBoosts"`
	TotalCancellations uint64              `json:"totalCancellations"`
	LastSettledDay     uint64              `json:"lastSettledDay"`
	LastDayWithStake   *uint64             `json:"lastDayWithStake"`
	CurrentDailyRate   math.HexOrDecimal64 `json:"currentDailyRate"`
	DaysWithNoPayout   uint64              `json:"daysWithNoPayout"`
}

func convertCampaign(c *campaign.Campaign) *Campaign {
	jc := &Campaign{
		ID:                 c.ID,
		Owner:              c.Owner,
		Asset:              c.Asset,
		StartDay:           c.StartDay,
		EndDay:             c.EndDay,
		MinStakeSize:       math.HexOrDecimal64(c.MinStakeSize),
		ShareMode:          c.ShareMode.String(),
		Budget:             math.HexOrDecimal64(c.Budget),
		Committed:          math.HexOrDecimal64(c.Committed),
		TotalRewarded:      math.HexOrDecimal64(c.TotalRewarded),
		TotalPaid:          math.HexOrDecimal64(c.TotalPaid),
		TotalRedeemed:      math.HexOrDecimal64(c.TotalRedeemed),
		TotalUnspentCarry:  math.HexOrDecimal64(c.TotalUnspentCarry),
		Redeemable:         math.HexOrDecimal64(c.Redeemable()),
		TotalStaked:        math.HexOrDecimal64(c.TotalStaked),
		ActiveParticipants: c.ActiveParticipants,
		Participants:       c.Participants,
		TotalStakeEvents:   c.TotalStakeEvents,
		TotalBoosts:        c.TotalBoosts,
		TotalCancellations: c.TotalCancellations,
		LastSettledDay:     c.LastSettledDay,
		CurrentDailyRate:   math.HexOrDecimal64(c.CurrentDailyRate),
		DaysWithNoPayout:   c.DaysWithNoPayout,
	}
	if c.HasStakedDay {
		day := c.LastDayWithStake
		jc.LastDayWithStake = &day
	}
	return jc
}

type Day struct {
	Day     uint64              `json:"day"`
	Rate    math.HexOrDecimal64 `json:"rate"`
	Staked  math.HexOrDecimal64 `json:"staked"`
	Boosted math.HexOrDecimal64 `json:"boosted"`
}

type Rate struct {
	Day  uint64              `json:"day"`
	Rate math.HexOrDecimal64 `json:"rate"`
}

type Participant struct {
	Owner         thor.Address                 `json:"owner"`
	Campaign      thor.Address                 `json:"campaign"`
	ActiveSince   *uint64                      `json:"activeSince"`
	SettledDay    uint64                       `json:"settledDay"`
	Staked        math.HexOrDecimal64          `json:"staked"`
	Pending       math.HexOrDecimal64          `json:"pending"`
	Accrued       math.HexOrDecimal64          `json:"accrued"`
	DailyRate     math.HexOrDecimal64          `json:"dailyRate"`
	TotalStaked   math.HexOrDecimal64          `json:"totalStaked"`
	TotalRewarded math.HexOrDecimal64          `json:"totalRewarded"`
	TotalClaimed  math.HexOrDecimal64          `json:"totalClaimed"`
	TotalBoosts   uint64                       `json:"totalBoosts"`
	BoostWindow   [participant.WindowSize]bool `json:"boostWindow"`
}

func convertParticipant(p *participant.Participant, today uint64) *Participant {
	jp := &Participant{
		Owner:         p.Owner,
		Campaign:      p.Campaign,
		SettledDay:    p.SettledDay,
		Staked:        math.HexOrDecimal64(p.Staked),
		Pending:       math.HexOrDecimal64(p.Pending),
		Accrued:       math.HexOrDecimal64(p.Accrued),
		DailyRate:     math.HexOrDecimal64(p.DailyRate),
		TotalStaked:   math.HexOrDecimal64(p.TotalStaked),
		TotalRewarded: math.HexOrDecimal64(p.TotalRewarded),
		TotalClaimed:  math.HexOrDecimal64(p.TotalClaimed),
		TotalBoosts:   p.TotalBoosts,
		BoostWindow:   p.Boosts.View(today),
	}
	if p.Active {
		since := p.ActiveSince
		jp.ActiveSince = &since
	}
	return jp
}
