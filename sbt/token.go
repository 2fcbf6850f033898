// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sbt

import (
	"github.com/soulstake/soulstake/soul"
)

// Token is a soulbound token record. Tokens are bound to their owner for
// life; there is no transfer, only revocation by an authorized issuer.
type Token struct {
	Owner    soul.Address
	Issuer   soul.Address
	URI      string
	MintedAt uint64 // unix seconds
}

// Metadata is the API-facing view of a token.
type Metadata struct {
	ID     uint64       `json:"id"`
	Owner  soul.Address `json:"owner"`
	Issuer soul.Address `json:"issuer"`
	URI    string       `json:"uri"`
	// unix seconds
	MintedAt uint64 `json:"mintedAt"`
}
