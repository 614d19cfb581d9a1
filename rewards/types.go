// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
)

// Config is the emission schedule of a pool, fixed at instantiation.
type Config struct {
	Vault        common.Address `json:"vault"`
	Funder       common.Address `json:"funder"`
	Asset        assets.Asset   `json:"asset"`
	PeriodStart  uint64         `json:"periodStart"`
	PeriodFinish uint64         `json:"periodFinish"`
	Rate         *big.Int       `json:"rate"`
}

// Accumulator is the reward per unit of stake since the pool started, scaled by Scale.
type Accumulator struct {
	Cumulative *big.Int `json:"cumulative"`
	LastUpdate uint64   `json:"lastUpdate"`
}

// UserReward is the reward bookkeeping of one account.
type UserReward struct {
	Checkpoint *big.Int `json:"checkpoint"`
	Pending    *big.Int `json:"pending"`
	Claimed    *big.Int `json:"claimed"`
}

func (u *UserReward) normalize() *UserReward {
	u.Checkpoint = common.BigOrZero(u.Checkpoint)
	u.Pending = common.BigOrZero(u.Pending)
	u.Claimed = common.BigOrZero(u.Claimed)
	return u
}

// InstantiateMsg creates a pool funded by what the instantiating call carries.
type InstantiateMsg struct {
	Funder      common.Address
	Asset       assets.Asset
	PeriodStart uint64
	Duration    uint64
}
