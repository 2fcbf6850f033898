// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/soulstake/soulstake/api/events"
	"github.com/soulstake/soulstake/api/health"
	stakingapi "github.com/soulstake/soulstake/api/staking"
	"github.com/soulstake/soulstake/api/tokens"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/metrics"
	"github.com/soulstake/soulstake/sbt"
	"github.com/soulstake/soulstake/staking"
)

type Options struct {
	AllowedOrigins string
	PprofOn        bool
	EnableMetrics  bool
	EventsLimit    uint64
}

// New returns the api handler.
func New(
	engine *staking.Engine,
	registry *sbt.Registry,
	eventDB *eventdb.EventDB,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}

	router := mux.NewRouter()

	stakingapi.New(engine).
		Mount(router, "/staking")
	tokens.New(registry).
		Mount(router, "/tokens")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	health.New(engine, eventDB).
		Mount(router, "/health")

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

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
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP
}
