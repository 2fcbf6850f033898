// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/soulstake/soulstake/api"
	"github.com/soulstake/soulstake/authority"
	"github.com/soulstake/soulstake/log"
	"github.com/soulstake/soulstake/metrics"
	"github.com/soulstake/soulstake/sbt"
	"github.com/soulstake/soulstake/staking"
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
	return fmt.Sprintf("soulstake %s-%.8s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Soulstake",
		Usage:     "Reputation staking engine for soulbound tokens",
		Copyright: "2025 The Soulstake developers",
		Flags: []cli.Flag{
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			paramsFlag,
			ownerFlag,
			resolverFlag,
			issuerFlag,
			collectionFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			pprofFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	params := loadParams(ctx)
	collection := selectCollection(ctx)
	instanceDir := makeInstanceDir(ctx, collection)

	mainDB := openMainDB(instanceDir)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	eventDB := openEventDB(instanceDir)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	auth := authority.New(mainDB)
	if err := seedAuthority(ctx, auth); err != nil {
		return err
	}

	registry := sbt.New(collection, mainDB, auth, sbt.WithEventDB(eventDB))
	engine, err := staking.New(mainDB, params, registry, auth, staking.WithEventDB(eventDB))
	if err != nil {
		return err
	}

	handler := api.New(engine, registry, eventDB, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		PprofOn:        ctx.Bool(pprofFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:    ctx.Uint64(apiEventsLimitFlag.Name),
	})

	srv, apiURL := startAPIServer(ctx, handler)
	defer func() { logger.Info("stopping API server..."); srv.Shutdown(context.Background()) }()

	printStartupMessage(instanceDir, apiURL, params, collection)

	<-handleExitSignal().Done()
	return nil
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
