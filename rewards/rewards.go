// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards implements a reward pool streaming a fixed amount over a fixed period
// to the stakers of a vault, in proportion to their effective stake.
package rewards

import (
	"math/big"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/storage"
	"github.com/vechain/stakevault/xenv"
)

var (
	logger = log.WithContext("pkg", "rewards")

	slotConfig      = storage.NameToSlot("config")
	slotAccumulator = storage.NameToSlot("accumulator")
	slotUsers       = storage.NameToSlot("user-rewards")
)

// Pool is the reward engine of one funded pool.
//
// The pool is Active until PeriodFinish, accruing nothing before PeriodStart,
// and Exhausted afterwards with a frozen accumulator.
type Pool struct {
	env         *xenv.Environment
	config      *storage.Value[*Config]
	accumulator *storage.Value[*Accumulator]
	users       *storage.Mapping[common.Address, *UserReward]
}

func New(env *xenv.Environment) *Pool {
	sctx := env.Storage()
	return &Pool{
		env:         env,
		config:      storage.NewValue[*Config](sctx, slotConfig),
		accumulator: storage.NewValue[*Accumulator](sctx, slotAccumulator),
		users:       storage.NewMapping[common.Address, *UserReward](sctx, slotUsers),
	}
}

// Instantiate sets the schedule of a new pool. The sender is the vault the pool serves.
func (p *Pool) Instantiate(msg *InstantiateMsg) error {
	if err := msg.Asset.Validate(); err != nil {
		return reverts.Validation("invalid asset: %v", err)
	}
	if msg.Funder.IsZero() {
		msg.Funder = p.env.Sender()
	}
	funded, err := p.funded(msg.Asset)
	if err != nil {
		return err
	}
	rate, finish, err := Schedule(funded, msg.PeriodStart, msg.Duration, p.env.Now())
	if err != nil {
		return err
	}

	cfg := &Config{
		Vault:        p.env.Sender(),
		Funder:       msg.Funder,
		Asset:        msg.Asset,
		PeriodStart:  msg.PeriodStart,
		PeriodFinish: finish,
		Rate:         rate,
	}
	if err := p.config.Set(cfg); err != nil {
		return err
	}
	if err := p.accumulator.Set(&Accumulator{Cumulative: new(big.Int), LastUpdate: p.env.Now()}); err != nil {
		return err
	}
	logger.Debug("reward pool created", "pool", p.env.Contract(), "asset", msg.Asset, "rate", rate, "start", msg.PeriodStart, "finish", finish)
	return nil
}

// Schedule checks that funded spread over duration from start gives a positive rate,
// and returns the rate and the period finish.
func Schedule(funded *big.Int, start, duration, now uint64) (rate *big.Int, finish uint64, err error) {
	if duration == 0 {
		return nil, 0, reverts.Validation("duration must be positive")
	}
	if funded == nil || funded.Sign() <= 0 {
		return nil, 0, reverts.Validation("pool is not funded")
	}
	if !common.FitsUint128(funded) {
		return nil, 0, reverts.ErrConversionOverflow
	}
	rate = new(big.Int).Quo(funded, new(big.Int).SetUint64(duration))
	if rate.Sign() == 0 {
		return nil, 0, reverts.Validation("reward rate is zero, fund %s over %d seconds", funded, duration)
	}
	if start < now {
		return nil, 0, reverts.Validation("period start %d is in the past", start)
	}
	finish = start + duration
	if finish < start {
		return nil, 0, reverts.ErrOverflow
	}
	return rate, finish, nil
}

func (p *Pool) funded(asset assets.Asset) (*big.Int, error) {
	if asset.Kind == assets.KindPooled {
		return p.env.Bank().Balance(p.env.Contract(), asset)
	}
	funded := new(big.Int)
	for _, coin := range p.env.Funds() {
		if coin.Denom == asset.Denom {
			funded.Add(funded, coin.Amount)
		}
	}
	return funded, nil
}

// Config returns the schedule, failing if the pool was never instantiated.
func (p *Pool) Config() (*Config, error) {
	cfg, found, err := p.config.Get()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("reward pool %s not found", p.env.Contract())
	}
	return cfg, nil
}

func (p *Pool) Accumulator() (*Accumulator, error) {
	acc, _, err := p.accumulator.Get()
	if err != nil {
		return nil, err
	}
	acc.Cumulative = common.BigOrZero(acc.Cumulative)
	return acc, nil
}

func (p *Pool) UserReward(account common.Address) (*UserReward, error) {
	user, err := p.users.Get(account)
	if err != nil {
		return nil, err
	}
	return user.normalize(), nil
}

func (p *Pool) authorize() (*Config, error) {
	cfg, err := p.Config()
	if err != nil {
		return nil, err
	}
	if p.env.Sender() != cfg.Vault {
		return nil, reverts.Unauthorized("%s is not the vault of pool %s", p.env.Sender(), p.env.Contract())
	}
	return cfg, nil
}

// checkpoint advances the accumulator to the current block time.
func (p *Pool) checkpoint(cfg *Config, total *big.Int) (*Accumulator, error) {
	acc, err := p.Accumulator()
	if err != nil {
		return nil, err
	}
	next, err := accrue(cfg, acc, total, p.env.Now())
	if err != nil {
		return nil, err
	}
	if err := p.accumulator.Set(next); err != nil {
		return nil, err
	}
	p.env.Emit(xenv.NewEvent("update-rewards").
		Add("total", total).
		Add("cumulative", next.Cumulative).
		Add("last_update", next.LastUpdate))
	return next, nil
}

func (p *Pool) update(account common.Address, stake, total *big.Int) (*UserReward, error) {
	cfg, err := p.authorize()
	if err != nil {
		return nil, err
	}
	acc, err := p.checkpoint(cfg, total)
	if err != nil {
		return nil, err
	}
	user, err := p.UserReward(account)
	if err != nil {
		return nil, err
	}
	return settle(user, acc.Cumulative, stake)
}

// OnStakeChange settles the rewards of account. The vault reports the stake and total
// which were in effect before the change it is about to apply.
func (p *Pool) OnStakeChange(account common.Address, stake, total *big.Int) error {
	user, err := p.update(account, stake, total)
	if err != nil {
		return err
	}
	if err := p.users.Set(account, user); err != nil {
		return err
	}
	p.env.Emit(xenv.NewEvent("update-user-rewards").
		Add("user", account).
		Add("stake", stake).
		Add("pending", user.Pending).
		Add("checkpoint", user.Checkpoint))
	return nil
}

// Claim settles the rewards of account and pays everything pending to recipient.
// It returns the amount paid, which may be zero.
func (p *Pool) Claim(account, recipient common.Address, stake, total *big.Int) (*big.Int, error) {
	user, err := p.update(account, stake, total)
	if err != nil {
		return nil, err
	}
	amount := user.Pending
	claimed := new(big.Int).Add(user.Claimed, amount)
	if !common.FitsUint128(claimed) {
		return nil, reverts.ErrConversionOverflow
	}
	user.Claimed = claimed
	user.Pending = new(big.Int)
	if err := p.users.Set(account, user); err != nil {
		return nil, err
	}

	if amount.Sign() > 0 {
		cfg, err := p.Config()
		if err != nil {
			return nil, err
		}
		if err := p.env.Bank().Transfer(p.env.Contract(), recipient, cfg.Asset, amount); err != nil {
			return nil, err
		}
	}
	p.env.Emit(xenv.NewEvent("update-user-rewards").
		Add("user", account).
		Add("stake", stake).
		Add("claimed", amount).
		Add("checkpoint", user.Checkpoint))
	return amount, nil
}

// ProjectedUserReward simulates a checkpoint of account at now without changing anything.
func (p *Pool) ProjectedUserReward(account common.Address, stake, total *big.Int, now uint64) (*UserReward, error) {
	cfg, err := p.Config()
	if err != nil {
		return nil, err
	}
	acc, err := p.Accumulator()
	if err != nil {
		return nil, err
	}
	next, err := accrue(cfg, acc, total, now)
	if err != nil {
		return nil, err
	}
	user, err := p.UserReward(account)
	if err != nil {
		return nil, err
	}
	return settle(user, next.Cumulative, stake)
}
