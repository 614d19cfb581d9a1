// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/storage"
)

// EffectiveStake returns the current effective stake of account.
func (l *Ledger) EffectiveStake(account common.Address) (*big.Int, error) {
	change, err := l.Sync(account)
	if err != nil {
		return nil, err
	}
	return change.EffectiveAfter, nil
}

// TotalAt returns the total effective stake at height.
// ok is false when height predates the first recorded total.
func (l *Ledger) TotalAt(height uint64) (total *big.Int, ok bool, err error) {
	return l.total.Query(height)
}

// Total returns the current total effective stake.
func (l *Ledger) Total() (*big.Int, error) {
	v, ok, err := l.TotalAt(l.env.Height())
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}
	return v, nil
}

// StakedItems pages the items staked by account, ordered by collection then token id.
// The cursor is the collection address bytes followed by the token id.
func (l *Ledger) StakedItems(account common.Address, page storage.Page) ([]Item, error) {
	items := []Item{}
	err := l.items.Iterate(account.Bytes(), page, func(key []byte, _ uint64) error {
		items = append(items, Item{
			Collection: common.BytesToAddress(key[:common.AddressLength]),
			TokenID:    string(key[common.AddressLength:]),
		})
		return nil
	})
	return items, err
}

// StakedCounts pages the per-bucket counts of account, ordered by bucket id.
func (l *Ledger) StakedCounts(account common.Address, page storage.Page) ([]BucketCount, error) {
	counts := []BucketCount{}
	err := l.counts.Iterate(account.Bytes(), page, func(key []byte, count *big.Int) error {
		counts = append(counts, BucketCount{Bucket: string(key), Count: count})
		return nil
	})
	return counts, err
}

// StakerOf returns who staked the item, or the zero address.
func (l *Ledger) StakerOf(item Item) (common.Address, error) {
	return l.owners.Get(ownerKey(item))
}
