// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockup

import (
	"github.com/soulstake/soulstake/soul"
)

type State = uint8

const (
	StateUnknown  = State(iota) // 0 -> default value
	StateLocked                 // token committed to an unresolved task
	StateResolved               // terminal; a new stake creates a fresh lock
)

// Lock binds a token to a task for its owner. At most one lock per token is
// in StateLocked at any time.
type Lock struct {
	Token      soul.TokenRef
	TaskID     soul.Bytes32
	Owner      soul.Address
	State      State
	CreatedAt  uint64 // unix seconds
	ResolvedAt uint64 // unix seconds, zero while locked
}

// IsEmpty returns whether the entry can be treated as empty.
func (l *Lock) IsEmpty() bool {
	return l.State == StateUnknown
}
