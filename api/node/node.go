// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/runtime"
)

// Info describes the running node.
type Info struct {
	Version string `json:"version"`
	Sqlite  string `json:"sqlite,omitempty"`
}

type Status struct {
	Info
	Head *runtime.Head `json:"head"`
	// IndexedHeight is the height of the newest event in the event log.
	IndexedHeight uint64 `json:"indexedHeight"`
}

type Node struct {
	rt      *runtime.Runtime
	eventDB *eventdb.EventDB
	info    Info
}

func New(rt *runtime.Runtime, eventDB *eventdb.EventDB, info Info) *Node {
	return &Node{
		rt,
		eventDB,
		info,
	}
}

func (n *Node) handleGetStatus(w http.ResponseWriter, req *http.Request) error {
	head, err := n.rt.Head()
	if err != nil {
		return err
	}
	indexed, err := n.eventDB.LastHeight(req.Context())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Status{Info: n.info, Head: head, IndexedHeight: indexed})
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /node").
		HandlerFunc(utils.WrapHandlerFunc(n.handleGetStatus))
}
