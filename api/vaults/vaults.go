// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/claims"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/vault"
	"github.com/vechain/stakevault/xenv"
)

type Vaults struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Vaults {
	return &Vaults{rt}
}

// Total is the total effective stake at a height.
// Total is null when the height predates the vault.
type Total struct {
	Height uint64   `json:"height"`
	Total  *big.Int `json:"total"`
}

type Stake struct {
	Account   common.Address `json:"account"`
	Effective *big.Int       `json:"effective"`
}

// ParsePageQuery reads the limit, order and startAfter query parameters.
func ParsePageQuery(req *http.Request) (vault.PageQuery, error) {
	query := req.URL.Query()
	q := vault.PageQuery{
		Order:      query.Get("order"),
		StartAfter: query.Get("startAfter"),
	}
	if s := query.Get("limit"); s != "" {
		limit, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return vault.PageQuery{}, utils.BadRequest(errors.WithMessage(err, "limit"))
		}
		q.Limit = uint32(limit)
	}
	return q, nil
}

// view runs fn on the vault named by the request path.
func (v *Vaults) view(req *http.Request, fn func(v *vault.Vault) error) error {
	addr, err := utils.AddressVar(req, "vault")
	if err != nil {
		return err
	}
	return v.rt.View(addr, func(env *xenv.Environment) error {
		if _, err := env.Registry().Require(addr, xenv.CodeVault); err != nil {
			return err
		}
		return fn(vault.New(env))
	})
}

func (v *Vaults) handleGetConfig(w http.ResponseWriter, req *http.Request) error {
	var cfg *vault.Config
	if err := v.view(req, func(v *vault.Vault) (err error) {
		cfg, err = v.Config()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, cfg)
}

func (v *Vaults) handleGetPools(w http.ResponseWriter, req *http.Request) error {
	var pools []common.Address
	if err := v.view(req, func(v *vault.Vault) (err error) {
		pools, err = v.RewardPools()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, pools)
}

func (v *Vaults) handleGetTotal(w http.ResponseWriter, req *http.Request) error {
	height, err := utils.Uint64Query(req, "height")
	if err != nil {
		return err
	}
	addr, err := utils.AddressVar(req, "vault")
	if err != nil {
		return err
	}
	var total Total
	if err := v.rt.View(addr, func(env *xenv.Environment) (err error) {
		if _, err := env.Registry().Require(addr, xenv.CodeVault); err != nil {
			return err
		}
		total.Height = env.Height()
		if height != nil {
			total.Height = *height
		}
		value, ok, err := vault.New(env).TotalStakedAt(&total.Height)
		if ok {
			total.Total = value
		}
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &total)
}

func (v *Vaults) handleGetStakedItems(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	q, err := ParsePageQuery(req)
	if err != nil {
		return err
	}
	var items []ledger.Item
	if err := v.view(req, func(v *vault.Vault) (err error) {
		items, err = v.StakedItems(account, q)
		return
	}); err != nil {
		return err
	}
	if items == nil {
		items = []ledger.Item{}
	}
	return utils.WriteJSON(w, items)
}

func (v *Vaults) handleGetStakedCounts(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	q, err := ParsePageQuery(req)
	if err != nil {
		return err
	}
	var counts []ledger.BucketCount
	if err := v.view(req, func(v *vault.Vault) (err error) {
		counts, err = v.StakedCounts(account, q)
		return
	}); err != nil {
		return err
	}
	if counts == nil {
		counts = []ledger.BucketCount{}
	}
	return utils.WriteJSON(w, counts)
}

func (v *Vaults) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	stake := Stake{Account: account}
	if err := v.view(req, func(v *vault.Vault) (err error) {
		stake.Effective, err = v.EffectiveStake(account)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &stake)
}

func (v *Vaults) handleGetClaims(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	var records []*claims.Record
	if err := v.view(req, func(v *vault.Vault) (err error) {
		records, err = v.Claims(account)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, records)
}

func (v *Vaults) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{vault}/config").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/config").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetConfig))
	sub.Path("/{vault}/pools").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/pools").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetPools))
	sub.Path("/{vault}/total").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/total").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetTotal))
	sub.Path("/{vault}/stakers/{account}").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/stakers/{account}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetStake))
	sub.Path("/{vault}/stakers/{account}/items").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/stakers/{account}/items").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetStakedItems))
	sub.Path("/{vault}/stakers/{account}/counts").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/stakers/{account}/counts").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetStakedCounts))
	sub.Path("/{vault}/stakers/{account}/claims").
		Methods(http.MethodGet).
		Name("GET /vaults/{vault}/stakers/{account}/claims").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetClaims))
}
