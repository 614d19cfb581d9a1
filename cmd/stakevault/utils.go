// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/metrics"
	"github.com/vechain/stakevault/runtime"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := &slog.LevelVar{}
	logLevel.Set(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))
	log.SetDefault(log.NewHandler(os.Stderr, logLevel, ctx.Bool(jsonLogsFlag.Name)))
	return logLevel
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// normalizeCacheSize keeps the cache within half of the physical memory.
func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 64 {
		sizeMB = 64
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

// openDatabases opens the state and event stores under dataDir, or in memory if dataDir is empty.
func openDatabases(dataDir string, cacheMB int) (*lvldb.LevelDB, *eventdb.EventDB, error) {
	if dataDir == "" {
		mainDB, err := lvldb.NewMem()
		if err != nil {
			return nil, nil, errors.Wrap(err, "open main database")
		}
		eventDB, err := eventdb.NewMem()
		if err != nil {
			mainDB.Close()
			return nil, nil, errors.Wrap(err, "open event database")
		}
		return mainDB, eventDB, nil
	}

	dir := filepath.Join(dataDir, "main.db")
	mainDB, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: 500,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	dir = filepath.Join(dataDir, "events.db")
	eventDB, err := eventdb.New(dir)
	if err != nil {
		mainDB.Close()
		return nil, nil, errors.Wrapf(err, "open event database [%v]", dir)
	}
	return mainDB, eventDB, nil
}

func selectClock(ctx *cli.Context) runtime.Clock {
	if ctx.Bool(onDemandFlag.Name) {
		return runtime.WallClock()
	}
	return runtime.FixedClock(ctx.Uint64(blockIntervalFlag.Name))
}

// initGenesis applies the genesis once, on an empty store.
func initGenesis(ctx *cli.Context, rt *runtime.Runtime) (*runtime.Head, error) {
	initialized, err := rt.Initialized()
	if err != nil {
		return nil, err
	}
	if initialized {
		return rt.Head()
	}

	gen := runtime.DevGenesis()
	if path := ctx.String(genesisFlag.Name); path != "" {
		if gen, err = runtime.LoadGenesis(path); err != nil {
			return nil, err
		}
	} else if ctx.Bool(onDemandFlag.Name) {
		gen.Time = uint64(time.Now().Unix())
	}
	return rt.Genesis(gen)
}

func listen(addr, name string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s addr [%v]", name, addr)
	}
	return listener, nil
}

func newMetricsServer() *http.Server {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return &http.Server{
		Handler:           handlers.CompressHandler(router),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
}

// serve runs srv until it is shut down.
func serve(srv *http.Server, listener net.Listener) error {
	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func printStartupMessage(head *runtime.Head, dataDir, apiURL string, accounts bool) {
	if dataDir == "" {
		dataDir = "Memory"
	}
	fmt.Printf(`Starting %v
    Head         [ #%v @%v ]
    Data dir     [ %v ]
    API portal   [ %v ]
`,
		"StakeVault "+fullVersion(),
		head.Number, time.Unix(int64(head.Time), 0).UTC(),
		dataDir,
		apiURL)

	if !accounts {
		return
	}
	var sb strings.Builder
	sb.WriteString("    Dev accounts\n")
	for _, acc := range runtime.DevAccounts() {
		fmt.Fprintf(&sb, "        %v\n", acc)
	}
	fmt.Print(sb.String())
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if goruntime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakevault")
		} else if goruntime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakevault")
		}
		return filepath.Join(home, ".org.vechain.stakevault")
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
