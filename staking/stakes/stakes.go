// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/staking/reverts"
)

// Add returns a + b. Overflow is fatal.
func Add(a, b uint64) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !sum.IsUint64() {
		return 0, reverts.ErrOverflow
	}
	return sum.Uint64(), nil
}

// Sub returns a - b. Underflow is fatal.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, reverts.ErrOverflow
	}
	return a - b, nil
}

// MulDiv returns floor(a * b * c / d) computed in 256 bits.
func MulDiv(a, b, c uint64, d *uint256.Int) (uint64, error) {
	if d == nil || d.IsZero() {
		return 0, reverts.Fatal("division by zero")
	}
	num, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow {
		return 0, reverts.ErrOverflow
	}
	if num, overflow = num.MulOverflow(num, uint256.NewInt(c)); overflow {
		return 0, reverts.ErrOverflow
	}
	q := num.Div(num, d)
	if !q.IsUint64() {
		return 0, reverts.ErrOverflow
	}
	return q.Uint64(), nil
}

// Sum returns a + b as a 256-bit integer; it never overflows for 64-bit inputs.
func Sum(a, b uint64) *uint256.Int {
	return new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
}

// Double returns 2 * a as a 256-bit integer.
func Double(a uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(a), 1)
}
