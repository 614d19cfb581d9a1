// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements the operations of a staking vault.
package vault

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/claims"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/rewards"
	"github.com/vechain/stakevault/storage"
	"github.com/vechain/stakevault/xenv"
)

var (
	logger = log.WithContext("pkg", "vault")

	slotConfig = storage.NameToSlot("config")
	slotPools  = storage.NameToSlot("reward-pools")
)

// Vault sequences the stake ledger, the claim queue and the reward pools.
//
// Stake and Unstake apply the ledger change first and then notify every registered
// pool with the effective stake and the total as they were before the change. Pools
// settle the elapsed window with those figures, so it is the figures passed that
// matter and not the order of the writes, which all land in the same atomic operation.
type Vault struct {
	env    *xenv.Environment
	config *storage.Value[*Config]
	pools  *storage.Value[[]common.Address]
	queue  *claims.Queue
}

func New(env *xenv.Environment) *Vault {
	sctx := env.Storage()
	return &Vault{
		env:    env,
		config: storage.NewValue[*Config](sctx, slotConfig),
		pools:  storage.NewValue[[]common.Address](sctx, slotPools),
		queue:  claims.New(sctx),
	}
}

func (v *Vault) Config() (*Config, error) {
	cfg, found, err := v.config.Get()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("vault %s not found", v.env.Contract())
	}
	return cfg, nil
}

func (v *Vault) ledger(cfg *Config) *ledger.Ledger {
	return ledger.New(v.env, cfg.Mode, cfg.buckets())
}

func (v *Vault) requireRewardsCode(codeID uint64) error {
	code, err := v.env.Registry().Code(codeID)
	if err != nil {
		return err
	}
	if code == nil || code.Kind != xenv.CodeRewards {
		return reverts.Validation("code %d is not a reward pool code", codeID)
	}
	return nil
}

func (v *Vault) requireAdmin(cfg *Config) error {
	if v.env.Sender() != cfg.Admin {
		return reverts.Unauthorized("%s is not the admin", v.env.Sender())
	}
	return nil
}

// Instantiate validates and stores the config, and starts the total stake at zero.
func (v *Vault) Instantiate(msg *InstantiateMsg) error {
	if err := assets.Nonpayable(v.env.Funds()); err != nil {
		return err
	}
	cfg := &Config{
		Admin:          v.env.Sender(),
		Mode:           msg.Mode,
		Collections:    msg.Collections,
		RewardsCodeID:  msg.RewardsCodeID,
		UnstakingDelay: msg.UnstakingDelay,
	}
	if msg.Admin != nil {
		cfg.Admin = *msg.Admin
	}
	if cfg.Admin.IsZero() {
		return reverts.Validation("zero admin")
	}

	switch msg.Mode {
	case ledger.ModeBucketed:
		if msg.StakeAsset != nil {
			return reverts.Validation("bucketed vault takes no stake asset")
		}
		if len(msg.Collections) == 0 {
			return reverts.Validation("no collections")
		}
		seen := make(map[common.Address]bool, len(msg.Collections))
		for _, col := range msg.Collections {
			if col.IsZero() {
				return reverts.Validation("zero collection address")
			}
			if seen[col] {
				return reverts.Validation("duplicated collection %s", col)
			}
			seen[col] = true
		}
	case ledger.ModeFungible:
		if len(msg.Collections) > 0 {
			return reverts.Validation("fungible vault takes no collections")
		}
		if msg.StakeAsset == nil || msg.StakeAsset.Kind != assets.KindNative || msg.StakeAsset.Validate() != nil {
			return reverts.Validation("fungible vault requires a native stake asset")
		}
		cfg.StakeAsset = *msg.StakeAsset
	default:
		return reverts.Validation("invalid stake mode")
	}
	if err := v.requireRewardsCode(msg.RewardsCodeID); err != nil {
		return err
	}

	if err := v.config.Set(cfg); err != nil {
		return err
	}
	if err := v.ledger(cfg).Init(); err != nil {
		return err
	}

	ev := xenv.NewEvent("set-config").
		Add("admin", cfg.Admin).
		Add("mode", cfg.Mode).
		Add("rewards_code_id", cfg.RewardsCodeID).
		Add("unstaking_delay", cfg.UnstakingDelay)
	for _, col := range cfg.Collections {
		ev.Add("collection", col)
	}
	if cfg.Mode == ledger.ModeFungible {
		ev.Add("stake_asset", cfg.StakeAsset)
	}
	v.env.Emit(ev)
	return nil
}

// Execute dispatches a command.
func (v *Vault) Execute(msg *ExecuteMsg) error {
	switch msg.Name() {
	case "updateConfig":
		return v.UpdateConfig(msg.UpdateConfig)
	case "createRewardPool":
		_, err := v.CreateRewardPool(msg.CreateRewardPool)
		return err
	case "stake":
		return v.Stake(msg.Stake)
	case "unstake":
		return v.Unstake(msg.Unstake)
	case "claim":
		_, err := v.Claim(msg.Claim)
		return err
	case "claimRewards":
		_, err := v.ClaimRewards(msg.ClaimRewards)
		return err
	default:
		return reverts.Validation("exactly one vault command is required")
	}
}

func (v *Vault) UpdateConfig(msg *UpdateConfigMsg) error {
	if err := assets.Nonpayable(v.env.Funds()); err != nil {
		return err
	}
	cfg, err := v.Config()
	if err != nil {
		return err
	}
	if err := v.requireAdmin(cfg); err != nil {
		return err
	}

	ev := xenv.NewEvent("update-config")
	if msg.RewardsCodeID != nil {
		if err := v.requireRewardsCode(*msg.RewardsCodeID); err != nil {
			return err
		}
		cfg.RewardsCodeID = *msg.RewardsCodeID
		ev.Add("rewards_code_id", cfg.RewardsCodeID)
	}
	if msg.UnstakingDelay != nil {
		cfg.UnstakingDelay = *msg.UnstakingDelay
		ev.Add("unstaking_delay", cfg.UnstakingDelay)
	}
	if err := v.config.Set(cfg); err != nil {
		return err
	}
	v.env.Emit(ev)
	return nil
}

// CreateRewardPool instantiates a pool at the address derived from the vault and the pool index,
// funds it and registers it.
func (v *Vault) CreateRewardPool(msg *CreateRewardPoolMsg) (common.Address, error) {
	cfg, err := v.Config()
	if err != nil {
		return common.Address{}, err
	}
	if err := v.requireAdmin(cfg); err != nil {
		return common.Address{}, err
	}
	if err := msg.Asset.Validate(); err != nil {
		return common.Address{}, reverts.Validation("invalid asset: %v", err)
	}

	var (
		funds  assets.Coins
		amount *big.Int
	)
	switch msg.Asset.Kind {
	case assets.KindNative:
		if amount, err = assets.MustPay(v.env.Funds(), msg.Asset.Denom); err != nil {
			return common.Address{}, err
		}
		funds = assets.Coins{{Denom: msg.Asset.Denom, Amount: amount}}
	case assets.KindPooled:
		if err := assets.Nonpayable(v.env.Funds()); err != nil {
			return common.Address{}, err
		}
		if amount, err = v.env.Bank().Balance(v.env.Contract(), msg.Asset); err != nil {
			return common.Address{}, err
		}
		if amount.Sign() == 0 {
			return common.Address{}, reverts.Validation("vault holds no %s to fund the pool", msg.Asset)
		}
	}

	// reject a bad schedule before the pool instance exists
	if _, _, err := rewards.Schedule(amount, msg.PeriodStart, msg.Duration, v.env.Now()); err != nil {
		return common.Address{}, err
	}

	pools, _, err := v.pools.Get()
	if err != nil {
		return common.Address{}, err
	}
	index := uint64(len(pools))
	salt := common.IndexSalt(v.env.Contract(), index)

	sub, err := v.env.Instantiate(cfg.RewardsCodeID, xenv.CodeRewards, fmt.Sprintf("reward pool %d", index), salt, funds)
	if err != nil {
		return common.Address{}, err
	}
	if msg.Asset.Kind == assets.KindPooled {
		if err := v.env.Bank().Transfer(v.env.Contract(), sub.Contract(), msg.Asset, amount); err != nil {
			return common.Address{}, err
		}
	}
	if err := rewards.New(sub).Instantiate(&rewards.InstantiateMsg{
		Funder:      v.env.Sender(),
		Asset:       msg.Asset,
		PeriodStart: msg.PeriodStart,
		Duration:    msg.Duration,
	}); err != nil {
		return common.Address{}, err
	}

	if err := v.pools.Set(append(pools, sub.Contract())); err != nil {
		return common.Address{}, err
	}
	v.env.Emit(xenv.NewEvent("create-reward-account").
		Add("address", sub.Contract()).
		Add("index", index).
		Add("asset", msg.Asset).
		Add("amount", amount))
	logger.Debug("reward pool registered", "vault", v.env.Contract(), "pool", sub.Contract(), "index", index)
	return sub.Contract(), nil
}

func (v *Vault) rewardPools() ([]common.Address, error) {
	pools, _, err := v.pools.Get()
	return pools, err
}

// notify settles every pool for the sender with the figures from before the change.
func (v *Vault) notify(change *ledger.Change) error {
	pools, err := v.rewardPools()
	if err != nil {
		return err
	}
	for _, pool := range pools {
		sub, err := v.env.Sub(pool, nil)
		if err != nil {
			return err
		}
		if err := rewards.New(sub).OnStakeChange(v.env.Sender(), change.EffectiveBefore, change.TotalBefore); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) Stake(msg *StakeMsg) error {
	cfg, err := v.Config()
	if err != nil {
		return err
	}

	var in ledger.Input
	if cfg.Mode == ledger.ModeFungible {
		if len(msg.Items) > 0 {
			return reverts.Validation("items can not be staked into a fungible vault")
		}
		if in.Amount, err = assets.MustPay(v.env.Funds(), cfg.StakeAsset.Denom); err != nil {
			return err
		}
	} else {
		if err := assets.Nonpayable(v.env.Funds()); err != nil {
			return err
		}
		in.Items = msg.Items
	}

	change, err := v.ledger(cfg).Stake(v.env.Sender(), in)
	if err != nil {
		return err
	}
	if err := v.notify(change); err != nil {
		return err
	}

	v.env.Emit(xenv.NewEvent("stake").
		Add("sender", v.env.Sender()).
		Add("amount", amountOf(in)).
		Add("effective", change.EffectiveAfter).
		Add("total", change.TotalAfter))
	return nil
}

func amountOf(in ledger.Input) *big.Int {
	if in.Amount != nil {
		return in.Amount
	}
	return big.NewInt(int64(len(in.Items)))
}

// Unstake removes stake and queues it for withdrawal after the unstaking delay.
func (v *Vault) Unstake(msg *UnstakeMsg) error {
	if err := assets.Nonpayable(v.env.Funds()); err != nil {
		return err
	}
	cfg, err := v.Config()
	if err != nil {
		return err
	}

	in := ledger.Input{Items: msg.Items}
	if msg.Amount != nil {
		in.Amount = new(big.Int).Set((*big.Int)(msg.Amount))
	}
	change, err := v.ledger(cfg).Unstake(v.env.Sender(), in)
	if err != nil {
		return err
	}
	if err := v.notify(change); err != nil {
		return err
	}

	var payload []claims.Unit
	if in.Amount != nil {
		payload = append(payload, claims.Amount(in.Amount))
	}
	for _, item := range in.Items {
		payload = append(payload, claims.Item(item.Collection, item.TokenID))
	}
	release := v.env.Now() + cfg.UnstakingDelay
	if release < v.env.Now() {
		return reverts.ErrOverflow
	}
	if err := v.queue.Create(v.env.Sender(), payload, release); err != nil {
		return err
	}

	v.env.Emit(xenv.NewEvent("unstake").
		Add("sender", v.env.Sender()).
		Add("amount", amountOf(in)).
		Add("release", release).
		Add("effective", change.EffectiveAfter).
		Add("total", change.TotalAfter))
	return nil
}

// Claim pays out the matured withdrawals of the sender.
func (v *Vault) Claim(msg *ClaimMsg) ([]claims.Unit, error) {
	if err := assets.Nonpayable(v.env.Funds()); err != nil {
		return nil, err
	}
	cfg, err := v.Config()
	if err != nil {
		return nil, err
	}

	recipient := v.env.Sender()
	if msg.Recipient != nil {
		recipient = *msg.Recipient
	}
	if recipient.IsZero() {
		return nil, reverts.Validation("zero recipient")
	}

	released, err := v.queue.Release(v.env.Sender(), v.env.Now(), msg.Cap)
	if err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return nil, ErrClaimableNotFound
	}

	amount := new(big.Int)
	for _, unit := range released {
		if unit.IsItem() {
			if err := v.env.Collections().Transfer(unit.Collection, unit.TokenID, v.env.Contract(), recipient); err != nil {
				return nil, err
			}
			continue
		}
		amount.Add(amount, unit.Amount)
	}
	if amount.Sign() > 0 {
		if err := v.env.Bank().Transfer(v.env.Contract(), recipient, cfg.StakeAsset, amount); err != nil {
			return nil, err
		}
	}

	v.env.Emit(xenv.NewEvent("claim-unstaked").
		Add("sender", v.env.Sender()).
		Add("recipient", recipient).
		Add("units", len(released)))
	return released, nil
}

// ClaimRewards pays the sender what every pool, or every listed pool, owes.
func (v *Vault) ClaimRewards(msg *ClaimRewardsMsg) ([]ClaimReward, error) {
	if err := assets.Nonpayable(v.env.Funds()); err != nil {
		return nil, err
	}
	cfg, err := v.Config()
	if err != nil {
		return nil, err
	}

	recipient := v.env.Sender()
	if msg.Recipient != nil {
		recipient = *msg.Recipient
	}
	if recipient.IsZero() {
		return nil, reverts.Validation("zero recipient")
	}

	registered, err := v.rewardPools()
	if err != nil {
		return nil, err
	}
	pools := registered
	if len(msg.Pools) > 0 {
		for _, pool := range msg.Pools {
			if !contains(registered, pool) {
				return nil, ErrRewardPoolNotFound
			}
		}
		pools = msg.Pools
	}

	change, err := v.ledger(cfg).Sync(v.env.Sender())
	if err != nil {
		return nil, err
	}

	paid := make([]ClaimReward, 0, len(pools))
	ev := xenv.NewEvent("claim-rewards").
		Add("sender", v.env.Sender()).
		Add("recipient", recipient)
	for _, pool := range pools {
		sub, err := v.env.Sub(pool, nil)
		if err != nil {
			return nil, err
		}
		amount, err := rewards.New(sub).Claim(v.env.Sender(), recipient, change.EffectiveAfter, change.TotalAfter)
		if err != nil {
			return nil, err
		}
		paid = append(paid, ClaimReward{Pool: pool, Amount: amount})
		ev.Add("pool", pool).Add("amount", amount)
	}
	v.env.Emit(ev)
	return paid, nil
}

func contains(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
