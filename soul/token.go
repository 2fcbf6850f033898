// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package soul

import (
	"encoding/binary"
	"fmt"
)

// TokenRef references a soulbound token by its collection address and token id.
type TokenRef struct {
	Collection Address `json:"collection"`
	ID         uint64  `json:"id"`
}

// NewTokenRef creates a token reference.
func NewTokenRef(collection Address, id uint64) TokenRef {
	return TokenRef{Collection: collection, ID: id}
}

// String implements the stringer interface.
func (r TokenRef) String() string {
	return fmt.Sprintf("%v/%d", r.Collection, r.ID)
}

// Key returns the fixed-width byte form of the reference, suitable as a storage key.
func (r TokenRef) Key() []byte {
	key := make([]byte, AddressLength+8)
	copy(key, r.Collection[:])
	binary.BigEndian.PutUint64(key[AddressLength:], r.ID)
	return key
}

// TaskID derives the 32-byte task identifier from the external task name.
func TaskID(name string) Bytes32 {
	return Blake2b([]byte(name))
}
