// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package claims implements the per-account queue of time-locked withdrawals.
package claims

import (
	"math/big"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/storage"
)

// MaxClaims is the number of records an account may have pending.
const MaxClaims = 100

var (
	ErrMaxClaimsReached = reverts.New(reverts.KindValidation, "max claims reached")

	slotClaims = storage.NameToSlot("claims")
)

// Unit is one item of a collection, or an amount of the fungible stake asset.
type Unit struct {
	Collection common.Address `json:"collection,omitempty"`
	TokenID    string         `json:"tokenId,omitempty"`
	Amount     *big.Int       `json:"amount,omitempty" rlp:"nil"`
}

func Item(collection common.Address, tokenID string) Unit {
	return Unit{Collection: collection, TokenID: tokenID}
}

func Amount(amount *big.Int) Unit {
	return Unit{Amount: amount}
}

func (u Unit) IsItem() bool {
	return u.TokenID != ""
}

// Record is a withdrawal released in full once Release has passed.
type Record struct {
	Payload []Unit `json:"payload"`
	Release uint64 `json:"release"`
}

// Size is the number of units, an amount counting as one.
func (r *Record) Size() uint64 {
	return uint64(len(r.Payload))
}

func (r *Record) Matured(now uint64) bool {
	return r.Release <= now
}

type Queue struct {
	claims *storage.Mapping[common.Address, []*Record]
}

func New(sctx *storage.Context) *Queue {
	return &Queue{
		claims: storage.NewMapping[common.Address, []*Record](sctx, slotClaims),
	}
}

func (q *Queue) save(account common.Address, records []*Record) error {
	if len(records) == 0 {
		q.claims.Delete(account)
		return nil
	}
	return q.claims.Set(account, records)
}

// Create appends a record to the account's queue.
func (q *Queue) Create(account common.Address, payload []Unit, release uint64) error {
	if len(payload) == 0 {
		return reverts.Validation("empty claim")
	}
	records, err := q.claims.Get(account)
	if err != nil {
		return err
	}
	if len(records) >= MaxClaims {
		return ErrMaxClaimsReached
	}
	return q.save(account, append(records, &Record{Payload: payload, Release: release}))
}

// Release removes the matured records of the account and returns their payloads.
//
// Records are visited in creation order. A matured record is released as a whole if it fits
// into what is left of cap, otherwise it stays queued while later records may still fit.
// A nil cap releases every matured record.
func (q *Queue) Release(account common.Address, now uint64, cap *uint64) ([]Unit, error) {
	records, err := q.claims.Get(account)
	if err != nil {
		return nil, err
	}

	var (
		released []Unit
		count    uint64
		remain   = records[:0:0]
	)
	for _, r := range records {
		if !r.Matured(now) {
			remain = append(remain, r)
			continue
		}
		if cap != nil && count+r.Size() > *cap {
			remain = append(remain, r)
			continue
		}
		count += r.Size()
		released = append(released, r.Payload...)
	}

	if len(remain) != len(records) {
		if err := q.save(account, remain); err != nil {
			return nil, err
		}
	}
	return released, nil
}

// Query returns the pending records of the account.
func (q *Queue) Query(account common.Address) ([]*Record, error) {
	return q.claims.Get(account)
}
