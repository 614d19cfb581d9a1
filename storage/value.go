// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/vechain/stakevault/reverts"
)

// Value is a single storage variable.
type Value[V any] struct {
	context *Context
	pos     Slot
}

func NewValue[V any](context *Context, pos Slot) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

// Get returns the stored value. The second value reports whether it was ever set.
func (v *Value[V]) Get() (V, bool, error) {
	value := newValue[V]()
	found, err := v.context.get(v.context.key(v.pos, nil), &value)
	return value, found, err
}

func (v *Value[V]) Set(value V) error {
	return v.context.set(v.context.key(v.pos, nil), value)
}

// Uint256 is a counter never allowed to go below zero.
type Uint256 struct {
	value *Value[*big.Int]
}

func NewUint256(context *Context, pos Slot) *Uint256 {
	return &Uint256{value: NewValue[*big.Int](context, pos)}
}

func (u *Uint256) Get() (*big.Int, error) {
	v, _, err := u.value.Get()
	return v, err
}

func (u *Uint256) Set(value *big.Int) error {
	return u.value.Set(value)
}

func (u *Uint256) Add(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(v.Add(v, delta))
}

func (u *Uint256) Sub(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if v.Cmp(delta) < 0 {
		return reverts.ErrOverflow
	}
	return u.Set(v.Sub(v, delta))
}
