// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package custody moves staked assets between owners and campaign escrows.
package custody

import (
	"errors"
	"sync"

	"github.com/vechain/stakepool/thor"
)

// ErrInsufficientBalance is returned when the source cannot cover a transfer.
var ErrInsufficientBalance = errors.New("custody: insufficient balance")

// Custody performs token moves on behalf of the staking engine.
type Custody interface {
	Transfer(asset, from, to thor.Address, amount uint64) error
}

type account struct {
	asset thor.Address
	owner thor.Address
}

// Ledger is an in-memory Custody keeping one balance per (asset, owner).
type Ledger struct {
	mu       sync.Mutex
	balances map[account]uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[account]uint64)}
}

// Mint credits amount out of thin air, for funding test and dev accounts.
func (l *Ledger) Mint(asset, to thor.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := account{asset, to}
	bal := l.balances[key]
	if bal+amount < bal {
		return errors.New("custody: balance overflow")
	}
	l.balances[key] = bal + amount
	return nil
}

func (l *Ledger) BalanceOf(asset, owner thor.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[account{asset, owner}]
}

func (l *Ledger) Transfer(asset, from, to thor.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, dst := account{asset, from}, account{asset, to}
	if l.balances[src] < amount {
		return ErrInsufficientBalance
	}
	if src == dst {
		return nil
	}
	if l.balances[dst]+amount < l.balances[dst] {
		return errors.New("custody: balance overflow")
	}
	l.balances[src] -= amount
	l.balances[dst] += amount
	return nil
}
