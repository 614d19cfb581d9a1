// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package snapshot keeps a single value indexed by height, so that
// the value in effect at any past height can be looked up.
package snapshot

import (
	"math"
	"math/big"

	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/storage"
)

type latest struct {
	Height uint64
	Value  *big.Int
}

// Store is an append-only time series of one value.
// Heights without a record resolve to the most recent prior record.
type Store struct {
	values *storage.Mapping[storage.Uint64Key, *big.Int]
	latest *storage.Value[*latest]
}

func New(sctx *storage.Context, name string) *Store {
	return &Store{
		values: storage.NewMapping[storage.Uint64Key, *big.Int](sctx, storage.NameToSlot(name+"-values")),
		latest: storage.NewValue[*latest](sctx, storage.NameToSlot(name+"-latest")),
	}
}

// Record stores value at height. Re-recording the latest height overwrites it.
func (s *Store) Record(height uint64, value *big.Int) error {
	last, found, err := s.latest.Get()
	if err != nil {
		return err
	}
	if found && height < last.Height {
		return reverts.Newf(reverts.KindInternal, "snapshot height %d before latest %d", height, last.Height)
	}

	if err := s.values.Set(storage.Uint64Key(height), value); err != nil {
		return err
	}
	return s.latest.Set(&latest{Height: height, Value: value})
}

// Latest returns the most recent record. ok is false if nothing was ever recorded.
func (s *Store) Latest() (height uint64, value *big.Int, ok bool, err error) {
	last, found, err := s.latest.Get()
	if err != nil || !found {
		return 0, nil, false, err
	}
	return last.Height, last.Value, true, nil
}

// Query returns the value in effect at height. ok is false if height predates the first record.
func (s *Store) Query(height uint64) (value *big.Int, ok bool, err error) {
	last, found, err := s.latest.Get()
	if err != nil || !found {
		return nil, false, err
	}
	if height >= last.Height {
		return last.Value, true, nil
	}

	page := storage.Page{Order: storage.Descending, Limit: 1}
	if height < math.MaxUint64 {
		page.StartAfter = storage.Uint64Key(height + 1).Bytes()
	}
	err = s.values.Iterate(nil, page, func(_ []byte, v *big.Int) error {
		value, ok = v, true
		return nil
	})
	return
}
