// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"

	"github.com/soulstake/soulstake/soul"
)

// Kind names the engine operation an event records.
type Kind string

const (
	KindStake       Kind = "stake"
	KindWithdraw    Kind = "withdraw"
	KindResolve     Kind = "resolve"
	KindBlacklist   Kind = "blacklist"
	KindUnblacklist Kind = "unblacklist"
	KindMultiplier  Kind = "multiplier"
	KindMint        Kind = "mint"
	KindRevoke      Kind = "revoke"
)

// Event is one audit record of a successful engine operation.
type Event struct {
	Seq  uint64       `json:"seq"`
	Time uint64       `json:"time"` // unix seconds
	Kind Kind         `json:"kind"`
	User soul.Address `json:"user"`

	// token context, zero-valued for account-level events
	Collection soul.Address `json:"collection"`
	TokenID    uint64       `json:"tokenID"`
	TaskID     soul.Bytes32 `json:"taskID"`

	Amount  *big.Int `json:"amount"`  // staked/withdrawn/slashed amount, nil if n/a
	Score   *big.Int `json:"score"`   // score after the operation, nil if n/a
	Success bool     `json:"success"` // resolution outcome, false elsewhere
}

// Order of filtered results by insertion sequence.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Options carries pagination.
type Options struct {
	Offset uint64
	Limit  uint64
}

// TimeRange bounds events by unix-second timestamps, inclusive.
type TimeRange struct {
	From uint64
	To   uint64
}

// Filter selects events. Nil/zero fields are not applied.
type Filter struct {
	Kind    Kind
	User    *soul.Address
	Range   *TimeRange
	Order   Order
	Options *Options
}
