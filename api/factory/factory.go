// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package factory

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/api/vaults"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/factory"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/xenv"
)

type Factory struct {
	rt      *runtime.Runtime
	address common.Address
}

// New serves the factory at address.
func New(rt *runtime.Runtime, address common.Address) *Factory {
	return &Factory{rt, address}
}

// Config is the factory config along with its address.
type Config struct {
	Address common.Address `json:"address"`
	*factory.Config
}

func (f *Factory) handleGetConfig(w http.ResponseWriter, req *http.Request) error {
	res := Config{Address: f.address}
	if err := f.rt.View(f.address, func(env *xenv.Environment) (err error) {
		res.Config, err = factory.New(env).Config()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (f *Factory) handleGetVaults(w http.ResponseWriter, req *http.Request) error {
	q, err := vaults.ParsePageQuery(req)
	if err != nil {
		return err
	}
	var entries []factory.Entry
	if err := f.rt.View(f.address, func(env *xenv.Environment) (err error) {
		entries, err = factory.New(env).Vaults(q)
		return
	}); err != nil {
		return err
	}
	if entries == nil {
		entries = []factory.Entry{}
	}
	return utils.WriteJSON(w, entries)
}

func (f *Factory) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /factory").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetConfig))
	sub.Path("/vaults").
		Methods(http.MethodGet).
		Name("GET /factory/vaults").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetVaults))
}
