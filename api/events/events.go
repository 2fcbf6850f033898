// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/api/utils"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/soul"
)

type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	events, err := e.db.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*eventdb.Event{}
	}
	return utils.WriteJSON(w, events)
}

func (e *Events) parseFilter(req *http.Request) (*eventdb.Filter, error) {
	query := req.URL.Query()
	filter := &eventdb.Filter{
		Kind:    eventdb.Kind(query.Get("kind")),
		Options: &eventdb.Options{Limit: e.limit},
	}
	if v := query.Get("user"); v != "" {
		user, err := soul.ParseAddress(v)
		if err != nil {
			return nil, errors.WithMessage(err, "user")
		}
		filter.User = &user
	}
	if query.Get("from") != "" || query.Get("to") != "" {
		from, err := parseUint(query.Get("from"), "from")
		if err != nil {
			return nil, err
		}
		to, err := parseUint(query.Get("to"), "to")
		if err != nil {
			return nil, err
		}
		if to == 0 {
			to = ^uint64(0)
		}
		if to < from {
			return nil, errors.New("to must be greater than or equal to from")
		}
		filter.Range = &eventdb.TimeRange{From: from, To: to}
	}
	if v := query.Get("order"); v != "" {
		switch eventdb.Order(v) {
		case eventdb.ASC, eventdb.DESC:
			filter.Order = eventdb.Order(v)
		default:
			return nil, errors.New("order: expected asc or desc")
		}
	}
	if v := query.Get("offset"); v != "" {
		offset, err := parseUint(v, "offset")
		if err != nil {
			return nil, err
		}
		filter.Options.Offset = offset
	}
	if v := query.Get("limit"); v != "" {
		limit, err := parseUint(v, "limit")
		if err != nil {
			return nil, err
		}
		if limit > e.limit {
			return nil, fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit)
		}
		filter.Options.Limit = limit
	}
	return filter, nil
}

func parseUint(v, name string) (uint64, error) {
	if v == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, name)
	}
	return parsed, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
