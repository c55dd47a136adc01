// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind groups rejections the way callers usually react to them.
type Kind uint8

const (
	KindTemporal Kind = iota + 1
	KindAuthorization
	KindBalance
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindTemporal:
		return "temporal"
	case KindAuthorization:
		return "authorization"
	case KindBalance:
		return "balance"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// ErrRevert is a typed rejection. It is always returned before any state is mutated.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

var (
	ErrCampaignNotStarted     = New(KindTemporal, "campaign is not started")
	ErrCampaignAlreadyStarted = New(KindTemporal, "campaign is already started")
	ErrCampaignFinished       = New(KindTemporal, "campaign is finished")
	ErrCampaignNotFinished    = New(KindTemporal, "campaign is not finished yet")

	ErrWrongAuthority = New(KindAuthorization, "wrong authority")

	ErrInsufficientFunds  = New(KindBalance, "insufficient funds")
	ErrStakeZeroTokens    = New(KindBalance, "stake zero tokens")
	ErrPendingZeroTokens  = New(KindBalance, "adding zero tokens to pending amount")
	ErrWithdrawZeroTokens = New(KindBalance, "withdraw zero tokens")
	ErrBudgetZeroTokens   = New(KindBalance, "adding zero tokens to budget")
	ErrSmallStakeSize     = New(KindBalance, "stake is smaller than the minimum stake size")

	ErrNoActiveStake      = New(KindState, "participant doesn't have active stake")
	ErrAlreadyBoosted     = New(KindState, "already boosted today")
	ErrAlreadyInitialized = New(KindState, "campaign is already initialized")
	ErrInvalidCampaign    = New(KindState, "invalid campaign range")
	ErrCampaignNotFound   = New(KindState, "campaign not found")
	ErrParticipantUnknown = New(KindState, "participant not found")
	ErrDayOutOfRange      = New(KindState, "day is out of the campaign range")
)

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of a revert error, or 0 for any other error.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return 0
}

// ErrFatal aborts a single operation: a violated precondition or corrupted arithmetic.
// Nothing is persisted and the caller must not retry.
type ErrFatal struct {
	message string
}

func Fatal(format string, args ...any) *ErrFatal {
	return &ErrFatal{message: fmt.Sprintf(format, args...)}
}

func (e *ErrFatal) Error() string {
	return "fatal: " + e.message
}

func IsFatalErr(err error) bool {
	var fe *ErrFatal
	return errors.As(err, &fe)
}

var (
	// ErrOverflow is the fatal error of any checked arithmetic.
	ErrOverflow = Fatal("arithmetic overflow")
	// ErrAccountNotEmpty is returned when closing a record that still holds funds.
	ErrAccountNotEmpty = Fatal("account is not empty")
)
