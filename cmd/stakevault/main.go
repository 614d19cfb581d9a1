// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakevault/api"
	"github.com/vechain/stakevault/api/node"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/metrics"
	"github.com/vechain/stakevault/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "StakeVault",
		Usage:     "Staking vaults with time-weighted reward pools",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			cacheFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			onDemandFlag,
			blockIntervalFlag,
			persistFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "dev-genesis",
				Usage:  "print the dev genesis as YAML, a starting point for --genesis",
				Action: devGenesisAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	var dataDir string
	if ctx.Bool(persistFlag.Name) {
		var err error
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
	}
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	mainDB, eventDB, err := openDatabases(dataDir, cacheMB)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	rt, err := runtime.New(mainDB, eventDB, runtime.Options{
		// state entries are small, a few hundred bytes each
		CacheSize: cacheMB / 2 * 1024,
		Clock:     selectClock(ctx),
	})
	if err != nil {
		return err
	}
	head, err := initGenesis(ctx, rt)
	if err != nil {
		return err
	}

	handler, closeAPI := api.New(rt, eventDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		NodeInfo:        node.Info{Version: fullVersion(), Sqlite: eventDB.DriverVersion()},
	})

	if ctx.Bool(enableAdminFlag.Name) {
		adminURL, closeAdmin, err := api.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closeAdmin() }()
		logger.Info("admin server started", "url", adminURL)
	}

	apiListener, err := listen(ctx.String(apiAddrFlag.Name), "API")
	if err != nil {
		return err
	}
	servers := []*http.Server{{Handler: handler, ReadHeaderTimeout: time.Second}}
	listeners := []net.Listener{apiListener}

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsListener, err := listen(ctx.String(metricsAddrFlag.Name), "metrics")
		if err != nil {
			apiListener.Close()
			return err
		}
		servers = append(servers, newMetricsServer())
		listeners = append(listeners, metricsListener)
		logger.Info("metrics server started", "url", "http://"+metricsListener.Addr().String()+"/metrics")
	}

	group, groupCtx := errgroup.WithContext(exitSignal)
	for i, srv := range servers {
		listener := listeners[i]
		group.Go(func() error { return serve(srv, listener) })
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("stopping API server...")
		// subscriptions hold hijacked conns which Shutdown does not wait for
		closeAPI()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shutdown server", "err", err)
			}
		}
		return nil
	})

	printStartupMessage(head, dataDir, "http://"+apiListener.Addr().String()+"/", ctx.String(genesisFlag.Name) == "")
	return group.Wait()
}

func devGenesisAction(*cli.Context) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(runtime.DevGenesis())
}
