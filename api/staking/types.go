// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/soulstake/soulstake/soul"
	"github.com/soulstake/soulstake/staking/lockup"
)

type StakeRequest struct {
	Caller     soul.Address          `json:"caller"`
	Collection soul.Address          `json:"collection"`
	TokenID    uint64                `json:"tokenID"`
	Task       string                `json:"task"`
	Amount     *math.HexOrDecimal256 `json:"amount"`
}

type WithdrawRequest struct {
	Caller soul.Address          `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type ResolveRequest struct {
	Caller     soul.Address `json:"caller"`
	Collection soul.Address `json:"collection"`
	TokenID    uint64       `json:"tokenID"`
	Success    bool         `json:"success"`
}

type BlacklistRequest struct {
	Caller soul.Address `json:"caller"`
	User   soul.Address `json:"user"`
}

type MultiplierRequest struct {
	Caller        soul.Address `json:"caller"`
	User          soul.Address `json:"user"`
	MultiplierBps uint32       `json:"multiplierBps"`
}

type Lock struct {
	Collection soul.Address `json:"collection"`
	TokenID    uint64       `json:"tokenID"`
	TaskID     soul.Bytes32 `json:"taskID"`
	Owner      soul.Address `json:"owner"`
	State      string       `json:"state"`
	CreatedAt  uint64       `json:"createdAt"`
	ResolvedAt uint64       `json:"resolvedAt,omitempty"`
}

type LockStatus struct {
	Locked  bool    `json:"locked"`
	Lock    *Lock   `json:"lock"`
	History []*Lock `json:"history"`
}

type Account struct {
	Address       soul.Address          `json:"address"`
	Balance       *math.HexOrDecimal256 `json:"balance"`
	Score         *math.HexOrDecimal256 `json:"score"`
	MultiplierBps uint32                `json:"multiplierBps"`
	Blacklisted   bool                  `json:"blacklisted"`
	LastStake     uint64                `json:"lastStake"`
	LastWithdraw  uint64                `json:"lastWithdraw"`
}

type Totals struct {
	Staked    *math.HexOrDecimal256 `json:"staked"`
	Withdrawn *math.HexOrDecimal256 `json:"withdrawn"`
	Slashed   *math.HexOrDecimal256 `json:"slashed"`
	Score     *math.HexOrDecimal256 `json:"score"`
}

func convertLock(lock *lockup.Lock) *Lock {
	if lock == nil {
		return nil
	}
	state := "locked"
	if lock.State == lockup.StateResolved {
		state = "resolved"
	}
	return &Lock{
		Collection: lock.Token.Collection,
		TokenID:    lock.Token.ID,
		TaskID:     lock.TaskID,
		Owner:      lock.Owner,
		State:      state,
		CreatedAt:  lock.CreatedAt,
		ResolvedAt: lock.ResolvedAt,
	}
}

func toQuantity(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(v)
}

func fromQuantity(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}
