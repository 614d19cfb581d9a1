// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakevault/api/accounts"
	"github.com/vechain/stakevault/api/commands"
	"github.com/vechain/stakevault/api/events"
	"github.com/vechain/stakevault/api/factory"
	"github.com/vechain/stakevault/api/node"
	"github.com/vechain/stakevault/api/pools"
	"github.com/vechain/stakevault/api/subscriptions"
	"github.com/vechain/stakevault/api/vaults"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EventsLimit     uint64
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	NodeInfo        node.Info
}

// New return api router
func New(
	rt *runtime.Runtime,
	eventDB *eventdb.EventDB,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	commands.New(rt).
		Mount(router, "/commands")
	factory.New(rt, runtime.FactoryAddress).
		Mount(router, "/factory")
	vaults.New(rt).
		Mount(router, "/vaults")
	pools.New(rt).
		Mount(router, "/pools")
	accounts.New(rt).
		Mount(router, "/accounts", "/collections")
	events.New(eventDB, opts.EventsLimit).
		Mount(router, "/events")
	node.New(rt, eventDB, opts.NodeInfo).
		Mount(router, "/node")
	subs := subscriptions.New(rt, eventDB, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.ExposedHeaders([]string{"x-request-id"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
