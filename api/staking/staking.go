// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/api/utils"
	"github.com/soulstake/soulstake/soul"
	"github.com/soulstake/soulstake/staking"
)

type Staking struct {
	engine *staking.Engine
}

func New(engine *staking.Engine) *Staking {
	return &Staking{engine}
}

func (s *Staking) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Task == "" {
		return utils.BadRequest(errors.New("task: non-empty name required"))
	}
	token := soul.TokenRef{Collection: body.Collection, ID: body.TokenID}
	lock, err := s.engine.Stake(body.Caller, token, soul.TaskID(body.Task), fromQuantity(body.Amount))
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, convertLock(lock))
}

func (s *Staking) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body WithdrawRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	balance, err := s.engine.Withdraw(body.Caller, fromQuantity(body.Amount))
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"balance": toQuantity(balance)})
}

func (s *Staking) handleResolve(w http.ResponseWriter, req *http.Request) error {
	var body ResolveRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	token := soul.TokenRef{Collection: body.Collection, ID: body.TokenID}
	score, err := s.engine.ResolveTask(body.Caller, token, body.Success)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"score": toQuantity(score)})
}

func (s *Staking) handleBlacklist(w http.ResponseWriter, req *http.Request) error {
	var body BlacklistRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.engine.Blacklist(body.Caller, body.User); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"blacklisted": true})
}

func (s *Staking) handleUnblacklist(w http.ResponseWriter, req *http.Request) error {
	user, err := soul.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	caller, err := soul.ParseAddress(req.URL.Query().Get("caller"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := s.engine.Unblacklist(caller, user); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"blacklisted": false})
}

func (s *Staking) handleSetMultiplier(w http.ResponseWriter, req *http.Request) error {
	var body MultiplierRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.engine.SetMultiplier(body.Caller, body.User, body.MultiplierBps); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"multiplierBps": body.MultiplierBps})
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := soul.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, err := s.engine.Account(addr)
	if err != nil {
		return err
	}
	mulBps, err := s.engine.MultiplierBps(addr)
	if err != nil {
		return err
	}
	times, err := s.engine.Times(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{
		Address:       addr,
		Balance:       toQuantity(acc.Balance),
		Score:         toQuantity(acc.Score),
		MultiplierBps: mulBps,
		Blacklisted:   acc.Blacklisted,
		LastStake:     times.LastStake,
		LastWithdraw:  times.LastWithdraw,
	})
}

func (s *Staking) handleGetLock(w http.ResponseWriter, req *http.Request) error {
	token, err := parseTokenRef(mux.Vars(req))
	if err != nil {
		return utils.BadRequest(err)
	}
	lock, err := s.engine.GetLock(token)
	if err != nil {
		return err
	}
	history, err := s.engine.LockHistory(token)
	if err != nil {
		return err
	}
	status := &LockStatus{
		Locked:  lock != nil,
		Lock:    convertLock(lock),
		History: make([]*Lock, 0, len(history)),
	}
	for _, resolved := range history {
		status.History = append(status.History, convertLock(resolved))
	}
	return utils.WriteJSON(w, status)
}

func (s *Staking) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	totals, err := s.engine.Totals()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Totals{
		Staked:    toQuantity(totals.Staked),
		Withdrawn: toQuantity(totals.Withdrawn),
		Slashed:   toQuantity(totals.Slashed),
		Score:     toQuantity(totals.Score),
	})
}

func parseTokenRef(vars map[string]string) (soul.TokenRef, error) {
	collection, err := soul.ParseAddress(vars["collection"])
	if err != nil {
		return soul.TokenRef{}, errors.WithMessage(err, "collection")
	}
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		return soul.TokenRef{}, errors.WithMessage(err, "id")
	}
	return soul.TokenRef{Collection: collection, ID: id}, nil
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/stakes").
		Methods(http.MethodPost).
		Name("POST /staking/stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStake))
	sub.Path("/withdrawals").
		Methods(http.MethodPost).
		Name("POST /staking/withdrawals").
		HandlerFunc(utils.WrapHandlerFunc(s.handleWithdraw))
	sub.Path("/resolutions").
		Methods(http.MethodPost).
		Name("POST /staking/resolutions").
		HandlerFunc(utils.WrapHandlerFunc(s.handleResolve))
	sub.Path("/blacklist").
		Methods(http.MethodPost).
		Name("POST /staking/blacklist").
		HandlerFunc(utils.WrapHandlerFunc(s.handleBlacklist))
	sub.Path("/blacklist/{address}").
		Methods(http.MethodDelete).
		Name("DELETE /staking/blacklist").
		HandlerFunc(utils.WrapHandlerFunc(s.handleUnblacklist))
	sub.Path("/multipliers").
		Methods(http.MethodPost).
		Name("POST /staking/multipliers").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSetMultiplier))
	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/locks/{collection}/{id}").
		Methods(http.MethodGet).
		Name("GET /staking/locks").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetLock))
	sub.Path("/totals").
		Methods(http.MethodGet).
		Name("GET /staking/totals").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotals))
}
