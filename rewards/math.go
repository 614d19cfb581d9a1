// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
)

// Scale is the fixed point scale of the accumulator.
var Scale = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(39))

func toU256(v *big.Int) (*uint256.Int, error) {
	u, overflow := uint256.FromBig(common.BigOrZero(v))
	if overflow || v != nil && v.Sign() < 0 {
		return nil, reverts.ErrConversionOverflow
	}
	return u, nil
}

func mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return z, nil
}

func div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, reverts.ErrDivideByZero
	}
	return new(uint256.Int).Div(a, b), nil
}

func add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return z, nil
}

// accrue computes the accumulator after advancing it to now.
// An empty pool accrues nothing for the window, which is lost.
func accrue(cfg *Config, acc *Accumulator, total *big.Int, now uint64) (*Accumulator, error) {
	windowStart := max(cfg.PeriodStart, acc.LastUpdate)
	windowEnd := min(now, cfg.PeriodFinish)

	next := &Accumulator{
		Cumulative: new(big.Int).Set(common.BigOrZero(acc.Cumulative)),
		LastUpdate: max(acc.LastUpdate, windowEnd),
	}
	if windowEnd <= windowStart || total.Sign() == 0 {
		return next, nil
	}

	rate, err := toU256(cfg.Rate)
	if err != nil {
		return nil, err
	}
	totalStake, err := toU256(total)
	if err != nil {
		return nil, err
	}
	cumulative, err := toU256(next.Cumulative)
	if err != nil {
		return nil, err
	}

	v, err := mul(rate, uint256.NewInt(windowEnd-windowStart))
	if err != nil {
		return nil, err
	}
	if v, err = mul(v, Scale); err != nil {
		return nil, err
	}
	if v, err = div(v, totalStake); err != nil {
		return nil, err
	}
	if cumulative, err = add(cumulative, v); err != nil {
		return nil, err
	}
	next.Cumulative = cumulative.ToBig()
	return next, nil
}

// settle moves what stake earned since the user's checkpoint into pending.
func settle(user *UserReward, cumulative *big.Int, stake *big.Int) (*UserReward, error) {
	cum, err := toU256(cumulative)
	if err != nil {
		return nil, err
	}
	checkpoint, err := toU256(user.Checkpoint)
	if err != nil {
		return nil, err
	}
	s, err := toU256(stake)
	if err != nil {
		return nil, err
	}
	if cum.Lt(checkpoint) {
		return nil, reverts.ErrInternalInvariant
	}

	earned, err := mul(new(uint256.Int).Sub(cum, checkpoint), s)
	if err != nil {
		return nil, err
	}
	earned.Div(earned, Scale)

	pending := new(big.Int).Add(user.Pending, earned.ToBig())
	if !common.FitsUint128(pending) {
		return nil, reverts.ErrConversionOverflow
	}
	return &UserReward{
		Checkpoint: new(big.Int).Set(cumulative),
		Pending:    pending,
		Claimed:    new(big.Int).Set(user.Claimed),
	}, nil
}
