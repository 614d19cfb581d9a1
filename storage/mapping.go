// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/kv"
)

type Key interface {
	Bytes() []byte
}

// Uint64Key is an order preserving integer key.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// BytesKey is a raw key.
type BytesKey []byte

func (k BytesKey) Bytes() []byte {
	return k
}

// Order of paging.
type Order uint8

const (
	Ascending Order = iota
	Descending
)

// Page selects a window of keys sharing a prefix.
type Page struct {
	// StartAfter excludes keys up to and including it, in the paging order.
	// It is relative to the prefix.
	StartAfter []byte
	Order      Order
	Limit      int // 0 means unlimited
}

// Mapping is a key/value storage abstraction for contracts, similar to the mapping in Solidity.
// Keys are stored in clear so entries can be paged in key order.
type Mapping[K Key, V any] struct {
	context *Context
	basePos Slot
}

func NewMapping[K Key, V any](context *Context, pos Slot) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Get returns the value of key. A missing entry yields the zero value,
// or a pointer to the zero value for pointer types.
func (m *Mapping[K, V]) Get(key K) (V, error) {
	value := newValue[V]()
	if _, err := m.context.get(m.context.key(m.basePos, key.Bytes()), &value); err != nil {
		return value, err
	}
	return value, nil
}

// Has returns whether key has an entry.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	return m.context.state.Has(m.context.key(m.basePos, key.Bytes()))
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.set(m.context.key(m.basePos, key.Bytes()), value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.Delete(m.context.key(m.basePos, key.Bytes()))
}

// Iterate pages entries whose key starts with prefix. fn gets the key with prefix stripped.
func (m *Mapping[K, V]) Iterate(prefix []byte, page Page, fn func(key []byte, value V) error) error {
	base := m.context.key(m.basePos, prefix)
	r := kv.PrefixRange(base)

	if len(page.StartAfter) > 0 {
		after := append(bytes.Clone(base), page.StartAfter...)
		if page.Order == Descending {
			r.Limit = after
		} else {
			r.Start = append(after, 0)
		}
	}

	n := 0
	return m.context.state.Iterate(r, page.Order == Descending, func(k, raw []byte) (bool, error) {
		value := newValue[V]()
		if err := rlp.DecodeBytes(raw, &value); err != nil {
			return false, errors.Wrap(err, "decode storage")
		}
		if err := fn(k[len(base):], value); err != nil {
			return false, err
		}
		n++
		return page.Limit <= 0 || n < page.Limit, nil
	})
}
