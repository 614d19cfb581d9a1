// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/claims"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/reverts"
)

var (
	ErrClaimableNotFound  = reverts.New(reverts.KindNotFound, "claimable not found")
	ErrRewardPoolNotFound = reverts.New(reverts.KindNotFound, "reward pool not found")

	// re-exported so callers of the vault need not import the ledger and claim queue
	ErrNotStaked        = ledger.ErrNotStaked
	ErrMaxClaimsReached = claims.ErrMaxClaimsReached
)

// Config of a vault.
type Config struct {
	Admin          common.Address   `json:"admin"`
	Mode           ledger.Mode      `json:"mode"`
	Collections    []common.Address `json:"collections,omitempty"`
	StakeAsset     assets.Asset     `json:"stakeAsset,omitzero"`
	RewardsCodeID  uint64           `json:"rewardsCodeId"`
	UnstakingDelay uint64           `json:"unstakingDelay"`
}

// buckets returns the required buckets of the stake ledger.
func (c *Config) buckets() []string {
	if c.Mode == ledger.ModeFungible {
		return []string{c.StakeAsset.ID()}
	}
	buckets := make([]string, 0, len(c.Collections))
	for _, col := range c.Collections {
		buckets = append(buckets, col.String())
	}
	return buckets
}

type InstantiateMsg struct {
	Admin          *common.Address  `json:"admin,omitempty"`
	Mode           ledger.Mode      `json:"mode"`
	Collections    []common.Address `json:"collections,omitempty"`
	StakeAsset     *assets.Asset    `json:"stakeAsset,omitempty"`
	RewardsCodeID  uint64           `json:"rewardsCodeId"`
	UnstakingDelay uint64           `json:"unstakingDelay"`
}

type UpdateConfigMsg struct {
	RewardsCodeID  *uint64 `json:"rewardsCodeId,omitempty"`
	UnstakingDelay *uint64 `json:"unstakingDelay,omitempty"`
}

type CreateRewardPoolMsg struct {
	Asset       assets.Asset `json:"asset"`
	PeriodStart uint64       `json:"periodStart"`
	Duration    uint64       `json:"duration"`
}

// StakeMsg stakes items. Fungible vaults take the attached funds instead.
type StakeMsg struct {
	Items []ledger.Item `json:"items,omitempty"`
}

type UnstakeMsg struct {
	Items  []ledger.Item          `json:"items,omitempty"`
	Amount *math.HexOrDecimal256 `json:"amount,omitempty"`
}

type ClaimMsg struct {
	Recipient *common.Address `json:"recipient,omitempty"`
	Cap       *uint64         `json:"cap,omitempty"`
}

type ClaimRewardsMsg struct {
	Recipient *common.Address  `json:"recipient,omitempty"`
	Pools     []common.Address `json:"pools,omitempty"`
}

// ExecuteMsg carries exactly one command.
type ExecuteMsg struct {
	UpdateConfig     *UpdateConfigMsg     `json:"updateConfig,omitempty"`
	CreateRewardPool *CreateRewardPoolMsg `json:"createRewardPool,omitempty"`
	Stake            *StakeMsg            `json:"stake,omitempty"`
	Unstake          *UnstakeMsg          `json:"unstake,omitempty"`
	Claim            *ClaimMsg            `json:"claim,omitempty"`
	ClaimRewards     *ClaimRewardsMsg     `json:"claimRewards,omitempty"`
}

// Name returns the name of the command, or an empty string unless exactly one is set.
func (m *ExecuteMsg) Name() string {
	var names []string
	if m.UpdateConfig != nil {
		names = append(names, "updateConfig")
	}
	if m.CreateRewardPool != nil {
		names = append(names, "createRewardPool")
	}
	if m.Stake != nil {
		names = append(names, "stake")
	}
	if m.Unstake != nil {
		names = append(names, "unstake")
	}
	if m.Claim != nil {
		names = append(names, "claim")
	}
	if m.ClaimRewards != nil {
		names = append(names, "claimRewards")
	}
	if len(names) != 1 {
		return ""
	}
	return names[0]
}

// ClaimReward is what one pool paid.
type ClaimReward struct {
	Pool   common.Address `json:"pool"`
	Amount *big.Int       `json:"amount"`
}
