// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package soul

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	addr, err := ParseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", addr.String())
	assert.False(t, addr.IsZero())
	assert.True(t, Address{}.IsZero())

	_, err = ParseAddress("0xzz")
	assert.Error(t, err)
	_, err = ParseAddress("00aa")
	assert.Error(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"0x00000000000000000000000000000000000000aa"`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	// out-of-range input is truncated left like a 160-bit word
	long := BytesToAddress(append(make([]byte, 10), addr.Bytes()...))
	assert.Equal(t, addr, long)
}

func TestBytes32(t *testing.T) {
	b32 := Blake2b([]byte("quest"))
	assert.Len(t, b32.Bytes(), 32)

	parsed, err := ParseBytes32(b32.String())
	require.NoError(t, err)
	assert.Equal(t, b32, parsed)

	data, err := json.Marshal(b32)
	require.NoError(t, err)
	var decoded Bytes32
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b32, decoded)
}

func TestTokenRef(t *testing.T) {
	collection := MustParseAddress("0x00000000000000000000000000000000000000ff")
	ref := TokenRef{Collection: collection, ID: 7}

	assert.Equal(t, "0x00000000000000000000000000000000000000ff/7", ref.String())

	key := ref.Key()
	assert.Len(t, key, 28)
	assert.Equal(t, collection.Bytes(), key[:20])

	// keys order tokens of a collection contiguously
	other := TokenRef{Collection: collection, ID: 8}
	assert.NotEqual(t, key, other.Key())
	assert.Equal(t, key[:20], other.Key()[:20])
}

func TestTaskID(t *testing.T) {
	a := TaskID("quest-7")
	b := TaskID("quest-7")
	c := TaskID("quest-8")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, Blake2b([]byte("quest-7")), a)
}
