// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/api/utils"
	"github.com/soulstake/soulstake/sbt"
	"github.com/soulstake/soulstake/soul"
)

type MintRequest struct {
	Issuer soul.Address `json:"issuer"`
	To     soul.Address `json:"to"`
	URI    string       `json:"uri"`
}

type RevokeRequest struct {
	Issuer soul.Address `json:"issuer"`
}

type Tokens struct {
	registry *sbt.Registry
}

func New(registry *sbt.Registry) *Tokens {
	return &Tokens{registry}
}

func (t *Tokens) handleMint(w http.ResponseWriter, req *http.Request) error {
	var body MintRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	id, err := t.registry.Mint(body.Issuer, body.To, body.URI, uint64(time.Now().Unix()))
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"id": id, "collection": t.registry.Collection()})
}

func (t *Tokens) handleRevoke(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(mux.Vars(req))
	if err != nil {
		return utils.BadRequest(err)
	}
	var body RevokeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := t.registry.Revoke(body.Issuer, id, uint64(time.Now().Unix())); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"id": id, "revoked": true})
}

func (t *Tokens) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(mux.Vars(req))
	if err != nil {
		return utils.BadRequest(err)
	}
	token, err := t.registry.Get(id)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, token)
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := soul.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	balance, err := t.registry.BalanceOf(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"address": addr, "balance": balance})
}

func parseID(vars map[string]string) (uint64, error) {
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "id")
	}
	return id, nil
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /tokens").
		HandlerFunc(utils.WrapHandlerFunc(t.handleMint))
	sub.Path("/{id:[0-9]+}/revoke").
		Methods(http.MethodPost).
		Name("POST /tokens/revoke").
		HandlerFunc(utils.WrapHandlerFunc(t.handleRevoke))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /tokens").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGet))
	sub.Path("/accounts/{address}/balance").
		Methods(http.MethodGet).
		Name("GET /tokens/balance").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))
}
