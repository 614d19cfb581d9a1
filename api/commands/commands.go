// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commands

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/runtime"
)

type Commands struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Commands {
	return &Commands{rt}
}

func (c *Commands) handleExecute(w http.ResponseWriter, req *http.Request) error {
	var cmd runtime.Command
	if err := utils.ParseJSON(req.Body, &cmd); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if len(cmd.Msg) == 0 {
		return utils.BadRequest(errors.New("msg: required"))
	}
	receipt, err := c.rt.Execute(req.Context(), &cmd)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, receipt)
}

func (c *Commands) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /commands").
		HandlerFunc(utils.WrapHandlerFunc(c.handleExecute))
}
