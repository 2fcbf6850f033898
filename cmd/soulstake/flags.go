// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for databases",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	paramsFlag = cli.StringFlag{
		Name:  "params",
		Usage: "path to a yaml file with engine policy params",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "address of the contract owner, required on first run",
	}
	resolverFlag = cli.StringFlag{
		Name:  "resolver",
		Usage: "address to authorize as task resolver on first run",
	}
	issuerFlag = cli.StringSliceFlag{
		Name:  "issuer",
		Usage: "address[:name] to authorize as token issuer on first run, may be repeated",
	}
	collectionFlag = cli.StringFlag{
		Name:  "collection",
		Usage: "address identifying the soulbound token collection",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: 2,
		Usage: "log verbosity (0=error, 1=warn, 2=info, 3=debug, 4=trace)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection and the /metrics endpoint",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
)
