// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"strings"

	"github.com/vechain/stakevault/claims"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/rewards"
	"github.com/vechain/stakevault/storage"
)

const (
	DefaultLimit = 10
	MaxLimit     = 30
)

// PageQuery selects a page of a listing. StartAfter is the cursor of the last entry seen.
type PageQuery struct {
	Limit      uint32
	Order      string
	StartAfter string
}

// ParsePage converts a query to a storage page, the cursor being encoded by cursor.
func ParsePage(q PageQuery, cursor func(string) ([]byte, error)) (storage.Page, error) {
	page := storage.Page{Limit: DefaultLimit}
	if q.Limit > 0 {
		page.Limit = int(min(q.Limit, MaxLimit))
	}
	switch strings.ToLower(q.Order) {
	case "", "asc":
	case "desc":
		page.Order = storage.Descending
	default:
		return storage.Page{}, reverts.Validation("invalid order %q", q.Order)
	}
	if q.StartAfter != "" {
		b, err := cursor(q.StartAfter)
		if err != nil {
			return storage.Page{}, reverts.Validation("invalid cursor: %v", err)
		}
		page.StartAfter = b
	}
	return page, nil
}

// ItemCursor encodes the cursor of a staked item.
func ItemCursor(item ledger.Item) string {
	return item.Collection.String() + "/" + item.TokenID
}

func parseItemCursor(s string) ([]byte, error) {
	col, id, ok := strings.Cut(s, "/")
	if !ok {
		return nil, reverts.Validation("cursor must be collection/tokenId")
	}
	addr, err := common.ParseAddress(col)
	if err != nil {
		return nil, err
	}
	return append(addr.Bytes(), id...), nil
}

func parseBucketCursor(s string) ([]byte, error) {
	return []byte(s), nil
}

// RewardPools returns the registered pools in creation order.
func (v *Vault) RewardPools() ([]common.Address, error) {
	pools, err := v.rewardPools()
	if pools == nil {
		pools = []common.Address{}
	}
	return pools, err
}

func (v *Vault) StakedItems(account common.Address, q PageQuery) ([]ledger.Item, error) {
	cfg, err := v.Config()
	if err != nil {
		return nil, err
	}
	page, err := ParsePage(q, parseItemCursor)
	if err != nil {
		return nil, err
	}
	return v.ledger(cfg).StakedItems(account, page)
}

func (v *Vault) StakedCounts(account common.Address, q PageQuery) ([]ledger.BucketCount, error) {
	cfg, err := v.Config()
	if err != nil {
		return nil, err
	}
	page, err := ParsePage(q, parseBucketCursor)
	if err != nil {
		return nil, err
	}
	return v.ledger(cfg).StakedCounts(account, page)
}

// TotalStakedAt returns the total effective stake at height, or now when height is nil.
// ok is false when height predates the vault.
func (v *Vault) TotalStakedAt(height *uint64) (total *big.Int, ok bool, err error) {
	cfg, err := v.Config()
	if err != nil {
		return nil, false, err
	}
	h := v.env.Height()
	if height != nil {
		h = *height
	}
	return v.ledger(cfg).TotalAt(h)
}

// EffectiveStake returns the current effective stake of account.
func (v *Vault) EffectiveStake(account common.Address) (*big.Int, error) {
	cfg, err := v.Config()
	if err != nil {
		return nil, err
	}
	return v.ledger(cfg).EffectiveStake(account)
}

func (v *Vault) Claims(account common.Address) ([]*claims.Record, error) {
	if _, err := v.Config(); err != nil {
		return nil, err
	}
	records, err := v.queue.Query(account)
	if records == nil {
		records = []*claims.Record{}
	}
	return records, err
}

func (v *Vault) pool(addr common.Address) (*rewards.Pool, error) {
	pools, err := v.rewardPools()
	if err != nil {
		return nil, err
	}
	if !contains(pools, addr) {
		return nil, ErrRewardPoolNotFound
	}
	sub, err := v.env.Sub(addr, nil)
	if err != nil {
		return nil, err
	}
	return rewards.New(sub), nil
}

// UserReward returns the stored reward checkpoint of account in pool.
func (v *Vault) UserReward(pool, account common.Address) (*rewards.UserReward, error) {
	p, err := v.pool(pool)
	if err != nil {
		return nil, err
	}
	return p.UserReward(account)
}

// LatestUserReward projects the reward checkpoint of account in pool to now.
func (v *Vault) LatestUserReward(pool, account common.Address, now uint64) (*rewards.UserReward, error) {
	cfg, err := v.Config()
	if err != nil {
		return nil, err
	}
	p, err := v.pool(pool)
	if err != nil {
		return nil, err
	}
	change, err := v.ledger(cfg).Sync(account)
	if err != nil {
		return nil, err
	}
	return p.ProjectedUserReward(account, change.EffectiveAfter, change.TotalAfter, now)
}
