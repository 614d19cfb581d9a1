// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/rewards"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/vault"
	"github.com/vechain/stakevault/xenv"
)

type Pools struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Pools {
	return &Pools{rt}
}

// Pool is the schedule and the accumulator of a reward pool, with its remaining balance.
type Pool struct {
	Address     common.Address       `json:"address"`
	Config      *rewards.Config      `json:"config"`
	Accumulator *rewards.Accumulator `json:"accumulator"`
	Balance     *big.Int             `json:"balance"`
}

// UserReward is the reward bookkeeping of an account, as stored or projected to the head block.
type UserReward struct {
	Account common.Address `json:"account"`
	Time    uint64         `json:"time"`
	*rewards.UserReward
}

func (p *Pools) view(req *http.Request, fn func(env *xenv.Environment, pool *rewards.Pool, cfg *rewards.Config) error) error {
	addr, err := utils.AddressVar(req, "pool")
	if err != nil {
		return err
	}
	return p.rt.View(addr, func(env *xenv.Environment) error {
		if _, err := env.Registry().Require(addr, xenv.CodeRewards); err != nil {
			return err
		}
		pool := rewards.New(env)
		cfg, err := pool.Config()
		if err != nil {
			return err
		}
		return fn(env, pool, cfg)
	})
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	var res Pool
	if err := p.view(req, func(env *xenv.Environment, pool *rewards.Pool, cfg *rewards.Config) (err error) {
		res.Address = env.Contract()
		res.Config = cfg
		if res.Accumulator, err = pool.Accumulator(); err != nil {
			return
		}
		res.Balance, err = env.Bank().Balance(env.Contract(), cfg.Asset)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (p *Pools) handleGetUserReward(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	latest, err := utils.BoolQuery(req, "latest")
	if err != nil {
		return err
	}
	res := UserReward{Account: account}
	if err := p.view(req, func(env *xenv.Environment, pool *rewards.Pool, cfg *rewards.Config) (err error) {
		if !latest {
			res.UserReward, err = pool.UserReward(account)
			return
		}
		// the projection needs the current stake, which the vault owns
		res.Time = env.Now()
		v := vault.New(xenv.New(env.State(), env.BlockContext(), common.Address{}, cfg.Vault, nil))
		res.UserReward, err = v.LatestUserReward(env.Contract(), account, env.Now())
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{pool}").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{pool}/users/{account}").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}/users/{account}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUserReward))
}
