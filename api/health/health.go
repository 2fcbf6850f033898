// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soulstake/soulstake/api/utils"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/staking"
)

type Status struct {
	Healthy bool `json:"healthy"`
	Store   bool `json:"store"`
	EventDB bool `json:"eventDB"`
}

type API struct {
	engine *staking.Engine
	events *eventdb.EventDB
}

func New(engine *staking.Engine, events *eventdb.EventDB) *API {
	return &API{engine, events}
}

func (h *API) status(req *http.Request) *Status {
	status := &Status{Store: true, EventDB: true}
	if _, err := h.engine.Totals(); err != nil {
		status.Store = false
	}
	if h.events != nil {
		if _, err := h.events.Filter(req.Context(), &eventdb.Filter{
			Options: &eventdb.Options{Limit: 1},
		}); err != nil {
			status.EventDB = false
		}
	}
	status.Healthy = status.Store && status.EventDB
	return status
}

func (h *API) handleGetHealth(w http.ResponseWriter, req *http.Request) error {
	status := h.status(req)
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, status)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
