// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/xenv"
)

// Accounts serves balances of accounts and owners of collection items.
type Accounts struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Accounts {
	return &Accounts{rt}
}

type Balance struct {
	Account common.Address `json:"account"`
	Asset   assets.Asset   `json:"asset"`
	Amount  *big.Int       `json:"amount"`
}

type Item struct {
	Collection common.Address  `json:"collection"`
	TokenID    string          `json:"tokenId"`
	Owner      *common.Address `json:"owner"`
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	asset, err := assets.ParseAsset(mux.Vars(req)["asset"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "asset"))
	}
	res := Balance{Account: account, Asset: asset}
	if err := a.rt.View(account, func(env *xenv.Environment) (err error) {
		res.Amount, err = env.Bank().Balance(account, asset)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (a *Accounts) handleGetItem(w http.ResponseWriter, req *http.Request) error {
	collection, err := utils.AddressVar(req, "collection")
	if err != nil {
		return err
	}
	res := Item{Collection: collection, TokenID: mux.Vars(req)["id"]}
	if err := a.rt.View(collection, func(env *xenv.Environment) error {
		owner, found, err := env.Collections().OwnerOf(collection, res.TokenID)
		if err != nil {
			return err
		}
		if found {
			res.Owner = &owner
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

// Mount registers the balance route under accounts and the item route under collections.
func (a *Accounts) Mount(root *mux.Router, accountsPrefix, collectionsPrefix string) {
	sub := root.PathPrefix(accountsPrefix).Subrouter()
	sub.Path("/{account}/balances/{asset}").
		Methods(http.MethodGet).
		Name("GET /accounts/{account}/balances/{asset}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))

	sub = root.PathPrefix(collectionsPrefix).Subrouter()
	sub.Path("/{collection}/items/{id}").
		Methods(http.MethodGet).
		Name("GET /collections/{collection}/items/{id}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetItem))
}
