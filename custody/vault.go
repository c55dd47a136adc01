// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"encoding/binary"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/thor"
)

var vaultBucket = kv.Bucket("v") // asset ++ owner -> balance

// Vault is a Custody persisting its balances in a key-value store.
type Vault struct {
	mu    sync.Mutex
	store kv.Store
}

func NewVault(store kv.Store) *Vault {
	return &Vault{store: store}
}

func vaultKey(asset, owner thor.Address) []byte {
	return append(asset.Bytes(), owner.Bytes()...)
}

func (v *Vault) balance(asset, owner thor.Address) (uint64, error) {
	data, err := vaultBucket.Get(v.store, vaultKey(asset, owner))
	if err != nil {
		if v.store.IsNotFound(err) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(err, "get balance")
	}
	if len(data) != 8 {
		return 0, errors.New("custody: corrupted balance")
	}
	return binary.BigEndian.Uint64(data), nil
}

func putBalance(b kv.Putter, asset, owner thor.Address, bal uint64) error {
	if bal == 0 {
		return vaultBucket.Delete(b, vaultKey(asset, owner))
	}
	return vaultBucket.Put(b, vaultKey(asset, owner), binary.BigEndian.AppendUint64(nil, bal))
}

func (v *Vault) BalanceOf(asset, owner thor.Address) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.balance(asset, owner)
}

// Mint credits amount out of thin air, for funding dev accounts.
func (v *Vault) Mint(asset, to thor.Address, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	bal, err := v.balance(asset, to)
	if err != nil {
		return err
	}
	if bal+amount < bal {
		return errors.New("custody: balance overflow")
	}
	return putBalance(v.store, asset, to, bal+amount)
}

func (v *Vault) Transfer(asset, from, to thor.Address, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	src, err := v.balance(asset, from)
	if err != nil {
		return err
	}
	if src < amount {
		return ErrInsufficientBalance
	}
	if from == to || amount == 0 {
		return nil
	}
	dst, err := v.balance(asset, to)
	if err != nil {
		return err
	}
	if dst+amount < dst {
		return errors.New("custody: balance overflow")
	}

	batch := v.store.NewBatch()
	if err := putBalance(batch, asset, from, src-amount); err != nil {
		return err
	}
	if err := putBalance(batch, asset, to, dst+amount); err != nil {
		return err
	}
	return pkgerrors.Wrap(batch.Write(), "write balances")
}
