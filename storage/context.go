// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed, RLP encoded storage slots for contracts.
// Every contract owns the key space prefixed by its address.
package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/state"
)

// Slot identifies a variable of a contract.
type Slot = common.Bytes32

// NameToSlot derives the slot of a named variable.
func NameToSlot(name string) Slot {
	return common.Blake2b([]byte(name))
}

type Context struct {
	address common.Address
	state   *state.State
}

func NewContext(address common.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() common.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// At returns the context of another contract sharing the same state.
func (c *Context) At(address common.Address) *Context {
	return NewContext(address, c.state)
}

func (c *Context) key(slot Slot, key []byte) []byte {
	k := make([]byte, 0, common.AddressLength+len(slot)+len(key))
	return append(append(append(k, c.address[:]...), slot[:]...), key...)
}

func (c *Context) get(key []byte, value any) (bool, error) {
	raw, err := c.state.Get(key)
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, value); err != nil {
		return false, errors.Wrap(err, "decode storage")
	}
	return true, nil
}

func (c *Context) set(key []byte, value any) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode storage")
	}
	c.state.Set(key, raw)
	return nil
}

// newValue returns the zero value of V, or a pointer to a fresh zero value for pointer types.
func newValue[V any]() (value V) {
	if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Ptr {
		value = reflect.New(t.Elem()).Interface().(V)
	}
	return
}
