// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sbt

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulstake/soulstake/authority"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/lvldb"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

var (
	owner      = soul.MustParseAddress("0x0000000000000000000000000000000000000001")
	issuer     = soul.MustParseAddress("0x00000000000000000000000000000000000000ee")
	alice      = soul.MustParseAddress("0x00000000000000000000000000000000000000aa")
	collection = soul.MustParseAddress("0x00000000000000000000000000000000000000ff")
)

func newAuth(t *testing.T, db kv.GetPutter) *authority.Authority {
	auth := authority.New(db)
	require.NoError(t, auth.Init(owner))
	require.NoError(t, auth.Grant(owner, authority.RoleIssuer, issuer, "acme", 500))
	return auth
}

func newRegistry(t *testing.T, opts ...Option) *Registry {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(collection, db, newAuth(t, db), opts...)
}

func TestMint(t *testing.T) {
	registry := newRegistry(t)

	_, err := registry.Mint(alice, alice, "ipfs://cred", 1000)
	assert.Equal(t, reverts.ErrNotAuthorizedIssuer, err)

	_, err = registry.Mint(issuer, soul.Address{}, "ipfs://cred", 1000)
	assert.Equal(t, reverts.ErrAddressZeroNotAllowed, err)

	_, err = registry.Mint(issuer, alice, "", 1000)
	assert.Equal(t, reverts.ErrEmptyTokenURI, err)

	id, err := registry.Mint(issuer, alice, "ipfs://cred", 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	tokenOwner, err := registry.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, alice, tokenOwner)

	uri, err := registry.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cred", uri)

	balance, err := registry.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance)

	// ids are sequential
	next, err := registry.NextTokenID()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)

	token, err := registry.Get(id)
	require.NoError(t, err)
	assert.Equal(t, issuer, token.Issuer)
	assert.Equal(t, uint64(1000), token.MintedAt)
}

func TestRevoke(t *testing.T) {
	registry := newRegistry(t)

	id, err := registry.Mint(issuer, alice, "ipfs://cred", 1000)
	require.NoError(t, err)

	assert.Equal(t, reverts.ErrNotAuthorizedIssuer, registry.Revoke(alice, id, 2000))
	assert.Equal(t, reverts.ErrTokenNotFound, registry.Revoke(issuer, 99, 2000))

	// issuers cannot revoke tokens they own themselves
	ownID, err := registry.Mint(issuer, issuer, "ipfs://self", 1001)
	require.NoError(t, err)
	assert.Equal(t, reverts.ErrSelfRevocationNotAllowed, registry.Revoke(issuer, ownID, 2000))

	require.NoError(t, registry.Revoke(issuer, id, 2000))
	_, err = registry.OwnerOf(id)
	assert.Equal(t, reverts.ErrTokenNotFound, err)

	balance, err := registry.BalanceOf(alice)
	require.NoError(t, err)
	assert.Zero(t, balance)

	// revoked ids are never reused
	next, err := registry.NextTokenID()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)
}

func TestResolveOwner(t *testing.T) {
	registry := newRegistry(t)

	id, err := registry.Mint(issuer, alice, "ipfs://cred", 1000)
	require.NoError(t, err)

	got, err := registry.ResolveOwner(soul.TokenRef{Collection: collection, ID: id})
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = registry.ResolveOwner(soul.TokenRef{Collection: owner, ID: id})
	assert.Equal(t, reverts.ErrTokenNotFound, err)

	_, err = registry.ResolveOwner(soul.TokenRef{Collection: collection, ID: 42})
	assert.Equal(t, reverts.ErrTokenNotFound, err)
}

func TestEventsAppended(t *testing.T) {
	events, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	registry := newRegistry(t, WithEventDB(events))

	id, err := registry.Mint(issuer, alice, "ipfs://cred", 1000)
	require.NoError(t, err)
	require.NoError(t, registry.Revoke(issuer, id, 2000))

	got, err := events.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, eventdb.KindMint, got[0].Kind)
	assert.Equal(t, alice, got[0].User)
	assert.Equal(t, collection, got[0].Collection)
	assert.Equal(t, id, got[0].TokenID)
	assert.Equal(t, uint64(1000), got[0].Time)

	assert.Equal(t, eventdb.KindRevoke, got[1].Kind)
	assert.Equal(t, alice, got[1].User)
	assert.Equal(t, id, got[1].TokenID)
	assert.Equal(t, uint64(2000), got[1].Time)
}

type brokenBatchStore struct {
	kv.Store
}

func (s *brokenBatchStore) NewBatch() kv.Batch {
	return &brokenBatch{s.Store.NewBatch()}
}

type brokenBatch struct {
	kv.Batch
}

func (b *brokenBatch) Write() error {
	return errors.New("disk full")
}

func TestMintAtomicity(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := New(collection, &brokenBatchStore{db}, newAuth(t, db))

	// a failing commit leaves no token, no balance, no id bump
	_, err = registry.Mint(issuer, alice, "ipfs://cred", 1000)
	require.Error(t, err)

	_, err = registry.OwnerOf(firstTokenID)
	assert.Equal(t, reverts.ErrTokenNotFound, err)

	balance, err := registry.BalanceOf(alice)
	require.NoError(t, err)
	assert.Zero(t, balance)

	next, err := registry.NextTokenID()
	require.NoError(t, err)
	assert.Equal(t, firstTokenID, next)
}
