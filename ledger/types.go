// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
)

// MaxItems is the largest number of items a single stake or unstake may carry.
const MaxItems = 20

var (
	ErrNotStaked = reverts.New(reverts.KindNotFound, "not staked")
	ErrEmpty     = reverts.New(reverts.KindValidation, "nothing to stake or unstake")
	ErrTooMany   = reverts.Newf(reverts.KindValidation, "more than %d items", MaxItems)
)

// Mode is how stake is held.
type Mode uint8

const (
	// ModeBucketed counts items per collection and weights an account by its least represented collection.
	ModeBucketed Mode = iota + 1
	// ModeFungible weights an account by its balance of one asset.
	ModeFungible
)

func (m Mode) String() string {
	switch m {
	case ModeBucketed:
		return "bucketed"
	case ModeFungible:
		return "fungible"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeBucketed && m != ModeFungible {
		return nil, errors.Errorf("invalid stake mode %d", m)
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "bucketed":
		*m = ModeBucketed
	case "fungible":
		*m = ModeFungible
	default:
		return errors.Errorf("invalid stake mode %q", text)
	}
	return nil
}

// Item identifies a non-fungible unit.
type Item struct {
	Collection common.Address `json:"collection"`
	TokenID    string         `json:"tokenId"`
}

// Input is what a stake or unstake carries: items in bucketed mode, an amount in fungible mode.
type Input struct {
	Items  []Item
	Amount *big.Int
}

// Change reports effective and total stake around a ledger update.
type Change struct {
	EffectiveBefore *big.Int
	EffectiveAfter  *big.Int
	TotalBefore     *big.Int
	TotalAfter      *big.Int
}

// BucketCount is the staked count of an account in one bucket.
type BucketCount struct {
	Bucket string   `json:"bucket"`
	Count  *big.Int `json:"count"`
}
