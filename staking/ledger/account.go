// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "math/big"

// MaxMultiplierBps caps reputation multipliers at 500%.
const MaxMultiplierBps = uint32(50000)

// Account is the per-user stake record.
type Account struct {
	Balance       *big.Int // amount currently staked
	Score         *big.Int // reputation score, never negative
	MultiplierBps uint32   // score multiplier in basis points, 0 = inherit global default
	Blacklisted   bool
}

func newAccount() *Account {
	return &Account{
		Balance: new(big.Int),
		Score:   new(big.Int),
	}
}

// IsEmpty returns whether the account can be treated as never used.
func (a *Account) IsEmpty() bool {
	return a.Balance.Sign() == 0 &&
		a.Score.Sign() == 0 &&
		a.MultiplierBps == 0 &&
		!a.Blacklisted
}

// Totals are the global ledger counters. Conservation holds as
// sum of all balances == Staked - Withdrawn - Slashed.
type Totals struct {
	Staked    *big.Int `json:"staked"`    // cumulative amount ever staked
	Withdrawn *big.Int `json:"withdrawn"` // cumulative amount withdrawn
	Slashed   *big.Int `json:"slashed"`   // cumulative amount burned by failed resolutions
	Score     *big.Int `json:"score"`     // sum of all reputation scores
}
