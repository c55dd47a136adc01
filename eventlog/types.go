// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import "github.com/vechain/stakepool/thor"

// Kind names the operation an event records.
type Kind string

const (
	KindCreate           Kind = "create"
	KindAddBudget        Kind = "addBudget"
	KindStake            Kind = "stake"
	KindBoost            Kind = "boost"
	KindCancel           Kind = "cancel"
	KindClaim            Kind = "claim"
	KindTransfer         Kind = "transferAccruedToPending"
	KindRedeem           Kind = "redeemUnspent"
	KindCloseParticipant Kind = "closeParticipant"
	KindCloseCampaign    Kind = "closeCampaign"
)

// Kinds lists every kind, in operation order.
var Kinds = []Kind{
	KindCreate, KindAddBudget, KindStake, KindBoost, KindCancel,
	KindClaim, KindTransfer, KindRedeem, KindCloseParticipant, KindCloseCampaign,
}

func (k Kind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Event is one applied operation.
type Event struct {
	Seq      uint64 // assigned on insert
	Campaign thor.Address
	Account  thor.Address // the caller
	Kind     Kind
	Day      uint64
	Amount   uint64
	Time     uint64 // unix seconds
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range of days.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects events; nil fields match everything.
type Filter struct {
	Campaign *thor.Address
	Account  *thor.Address
	Kinds    []Kind
	Range    *Range
	Order    Order
	Options  *Options
}
