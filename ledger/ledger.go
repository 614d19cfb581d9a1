// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger tracks what every account has staked into a vault and derives
// the effective stake which weights reward distribution.
package ledger

import (
	"math/big"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/snapshot"
	"github.com/vechain/stakevault/storage"
	"github.com/vechain/stakevault/xenv"
)

var (
	logger = log.WithContext("pkg", "ledger")

	slotCounts = storage.NameToSlot("stake-counts")
	slotItems  = storage.NameToSlot("staked-items")
	slotOwners = storage.NameToSlot("staked-item-owners")
)

// Ledger is the stake ledger of one vault.
//
// In bucketed mode every required bucket is a collection and its id is the collection address.
// In fungible mode the single bucket is the id of the stake asset.
type Ledger struct {
	env     *xenv.Environment
	mode    Mode
	buckets []string

	counts *storage.Mapping[storage.BytesKey, *big.Int]
	items  *storage.Mapping[storage.BytesKey, uint64]
	owners *storage.Mapping[storage.BytesKey, common.Address]
	total  *snapshot.Store
}

func New(env *xenv.Environment, mode Mode, buckets []string) *Ledger {
	sctx := env.Storage()
	return &Ledger{
		env:     env,
		mode:    mode,
		buckets: buckets,
		counts:  storage.NewMapping[storage.BytesKey, *big.Int](sctx, slotCounts),
		items:   storage.NewMapping[storage.BytesKey, uint64](sctx, slotItems),
		owners:  storage.NewMapping[storage.BytesKey, common.Address](sctx, slotOwners),
		total:   snapshot.New(sctx, "total-staked"),
	}
}

func countKey(account common.Address, bucket string) storage.BytesKey {
	return append(account.Bytes(), bucket...)
}

func itemKey(account common.Address, item Item) storage.BytesKey {
	return append(append(account.Bytes(), item.Collection.Bytes()...), item.TokenID...)
}

func ownerKey(item Item) storage.BytesKey {
	return append(item.Collection.Bytes(), item.TokenID...)
}

// Init records a zero total at the current height.
func (l *Ledger) Init() error {
	return l.total.Record(l.env.Height(), new(big.Int))
}

func (l *Ledger) allowed(bucket string) bool {
	for _, b := range l.buckets {
		if b == bucket {
			return true
		}
	}
	return false
}

func (l *Ledger) validate(in Input) error {
	switch l.mode {
	case ModeBucketed:
		if in.Amount != nil {
			return reverts.Validation("amounts can not be staked into a bucketed vault")
		}
		if len(in.Items) == 0 {
			return ErrEmpty
		}
		if len(in.Items) > MaxItems {
			return ErrTooMany
		}
		for _, item := range in.Items {
			if !l.allowed(item.Collection.String()) {
				return reverts.Validation("collection %s not allowed", item.Collection)
			}
			if item.TokenID == "" {
				return reverts.Validation("empty token id")
			}
		}
	case ModeFungible:
		if len(in.Items) > 0 {
			return reverts.Validation("items can not be staked into a fungible vault")
		}
		if in.Amount == nil || in.Amount.Sign() <= 0 {
			return ErrEmpty
		}
	default:
		return reverts.ErrInternalInvariant
	}
	return nil
}

// Stake records the input as staked by account. Items are transferred into the vault.
func (l *Ledger) Stake(account common.Address, in Input) (*Change, error) {
	if err := l.validate(in); err != nil {
		return nil, err
	}

	deltas := make(map[string]*big.Int)
	if l.mode == ModeFungible {
		deltas[l.buckets[0]] = new(big.Int).Set(in.Amount)
		return l.reconcile(account, deltas)
	}

	cols := l.env.Collections()
	for _, item := range in.Items {
		staked, err := l.owners.Has(ownerKey(item))
		if err != nil {
			return nil, err
		}
		if staked {
			return nil, reverts.Validation("item %s/%s already staked", item.Collection, item.TokenID)
		}
		if err := cols.Transfer(item.Collection, item.TokenID, account, l.env.Contract()); err != nil {
			return nil, err
		}
		if err := l.items.Set(itemKey(account, item), l.env.Height()); err != nil {
			return nil, err
		}
		if err := l.owners.Set(ownerKey(item), account); err != nil {
			return nil, err
		}
		addDelta(deltas, item.Collection.String(), 1)
	}
	return l.reconcile(account, deltas)
}

// Unstake removes the input from what account has staked. Items stay in custody of the vault.
func (l *Ledger) Unstake(account common.Address, in Input) (*Change, error) {
	if err := l.validate(in); err != nil {
		return nil, err
	}

	deltas := make(map[string]*big.Int)
	if l.mode == ModeFungible {
		deltas[l.buckets[0]] = new(big.Int).Neg(in.Amount)
		return l.reconcile(account, deltas)
	}

	for _, item := range in.Items {
		owner, err := l.owners.Get(ownerKey(item))
		if err != nil {
			return nil, err
		}
		if owner.IsZero() {
			return nil, ErrNotStaked
		}
		if owner != account {
			return nil, reverts.Unauthorized("item %s/%s not staked by %s", item.Collection, item.TokenID, account)
		}
		l.items.Delete(itemKey(account, item))
		l.owners.Delete(ownerKey(item))
		addDelta(deltas, item.Collection.String(), -1)
	}
	return l.reconcile(account, deltas)
}

// Sync reports the current effective stake of account and the total, without changing anything.
func (l *Ledger) Sync(account common.Address) (*Change, error) {
	return l.reconcile(account, nil)
}

func addDelta(deltas map[string]*big.Int, bucket string, d int64) {
	if v, ok := deltas[bucket]; ok {
		v.Add(v, big.NewInt(d))
		return
	}
	deltas[bucket] = big.NewInt(d)
}

// reconcile applies signed deltas to the bucket counts of account, then moves the total
// by the change of the account's effective stake.
func (l *Ledger) reconcile(account common.Address, deltas map[string]*big.Int) (*Change, error) {
	var (
		before, after *big.Int
		visited       bool
	)
	for _, bucket := range l.buckets {
		count, err := l.counts.Get(countKey(account, bucket))
		if err != nil {
			return nil, err
		}
		updated := count
		if d, ok := deltas[bucket]; ok && d.Sign() != 0 {
			updated = new(big.Int).Add(count, d)
			if updated.Sign() < 0 {
				if l.mode == ModeFungible {
					return nil, ErrNotStaked
				}
				return nil, reverts.ErrOverflow
			}
			if !common.FitsUint128(updated) {
				return nil, reverts.ErrOverflow
			}
			if updated.Sign() == 0 {
				l.counts.Delete(countKey(account, bucket))
			} else if err := l.counts.Set(countKey(account, bucket), updated); err != nil {
				return nil, err
			}
		}

		if !visited || count.Cmp(before) < 0 {
			before = count
		}
		if !visited || updated.Cmp(after) < 0 {
			after = updated
		}
		visited = true
	}
	if !visited {
		return nil, reverts.ErrInternalInvariant
	}

	_, total, ok, err := l.total.Latest()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.ErrInternalInvariant
	}
	newTotal := new(big.Int).Sub(total, before)
	newTotal.Add(newTotal, after)
	if newTotal.Sign() < 0 {
		return nil, reverts.ErrInternalInvariant
	}
	if !common.FitsUint128(newTotal) {
		return nil, reverts.ErrOverflow
	}
	if newTotal.Cmp(total) != 0 {
		if err := l.total.Record(l.env.Height(), newTotal); err != nil {
			return nil, err
		}
	}

	if len(deltas) > 0 {
		logger.Debug("stake reconciled", "account", account, "effective", after, "total", newTotal)
	}
	return &Change{
		EffectiveBefore: before,
		EffectiveAfter:  after,
		TotalBefore:     total,
		TotalAfter:      newTotal,
	}, nil
}
