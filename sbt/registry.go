// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sbt

import (
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/authority"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/log"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

var logger = log.WithContext("pkg", "sbt")

const (
	tokensBucket   = kv.Bucket("sbt-tokens")
	balancesBucket = kv.Bucket("sbt-balances")
	slotsBucket    = kv.Bucket("sbt-slots")
)

var slotNextID = []byte("next-id")

// firstTokenID is the id assigned to the first minted token.
const firstTokenID = uint64(1)

// Registry keeps the soulbound tokens of one collection. It resolves token
// ownership for the staking engine. Mint and Revoke stage their writes in a
// batch committed once, so a failing step leaves no partial state.
type Registry struct {
	mu         sync.RWMutex
	collection soul.Address
	auth       *authority.Authority
	store      kv.Store
	tokens     kv.Getter
	balances   kv.Getter
	slots      kv.Getter
	events     *eventdb.EventDB
}

// Option tweaks registry construction.
type Option func(*Registry)

// WithEventDB attaches an audit trail. Mint/revoke events are appended after
// a successful commit.
func WithEventDB(db *eventdb.EventDB) Option {
	return func(r *Registry) { r.events = db }
}

// New creates the registry for the collection identified by collection,
// backed by the given store. Mint and Revoke consult auth for the issuer
// role.
func New(collection soul.Address, store kv.Store, auth *authority.Authority, opts ...Option) *Registry {
	registry := &Registry{
		collection: collection,
		auth:       auth,
		store:      store,
		tokens:     tokensBucket.ProxyGetter(store),
		balances:   balancesBucket.ProxyGetter(store),
		slots:      slotsBucket.ProxyGetter(store),
	}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// Collection returns the collection address the registry serves.
func (r *Registry) Collection() soul.Address {
	return r.collection
}

// Mint issues a new token to recipient and returns its id. Ids are
// sequential and never reused, a revoked token leaves a permanent gap.
func (r *Registry) Mint(issuer, recipient soul.Address, uri string, now uint64) (uint64, error) {
	if recipient.IsZero() {
		return 0, reverts.ErrAddressZeroNotAllowed
	}
	if uri == "" {
		return 0, reverts.ErrEmptyTokenURI
	}
	ok, err := r.auth.IsAuthorized(authority.RoleIssuer, issuer)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, reverts.ErrNotAuthorizedIssuer
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.nextID()
	if err != nil {
		return 0, err
	}
	token := &Token{
		Owner:    recipient,
		Issuer:   issuer,
		URI:      uri,
		MintedAt: now,
	}

	batch := r.store.NewBatch()
	if err := r.putToken(batch, id, token); err != nil {
		return 0, err
	}
	if err := r.addBalance(batch, recipient, 1); err != nil {
		return 0, err
	}
	if err := r.setNextID(batch, id+1); err != nil {
		return 0, err
	}
	if err := batch.Write(); err != nil {
		return 0, errors.Wrap(err, "failed to commit mint")
	}

	r.appendEvent(&eventdb.Event{
		Time:       now,
		Kind:       eventdb.KindMint,
		User:       recipient,
		Collection: r.collection,
		TokenID:    id,
	})
	logger.Info("minted token", "id", id, "owner", recipient, "issuer", issuer)
	return id, nil
}

// Revoke burns token id. Only an authorized issuer may revoke, and never
// a token it owns itself. Revocation is one-way.
func (r *Registry) Revoke(issuer soul.Address, id uint64, now uint64) error {
	ok, err := r.auth.IsAuthorized(authority.RoleIssuer, issuer)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotAuthorizedIssuer
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token, err := r.getToken(id)
	if err != nil {
		return err
	}
	if token == nil {
		return reverts.ErrTokenNotFound
	}
	if token.Owner == issuer {
		return reverts.ErrSelfRevocationNotAllowed
	}

	batch := r.store.NewBatch()
	if err := tokensBucket.ProxyPutter(batch).Delete(idKey(id)); err != nil {
		return errors.Wrap(err, "failed to delete token")
	}
	if err := r.addBalance(batch, token.Owner, -1); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to commit revocation")
	}

	r.appendEvent(&eventdb.Event{
		Time:       now,
		Kind:       eventdb.KindRevoke,
		User:       token.Owner,
		Collection: r.collection,
		TokenID:    id,
	})
	logger.Info("revoked token", "id", id, "owner", token.Owner, "issuer", issuer)
	return nil
}

// OwnerOf returns the owner of token id.
func (r *Registry) OwnerOf(id uint64) (soul.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, err := r.getToken(id)
	if err != nil {
		return soul.Address{}, err
	}
	if token == nil {
		return soul.Address{}, reverts.ErrTokenNotFound
	}
	return token.Owner, nil
}

// TokenURI returns the metadata URI of token id.
func (r *Registry) TokenURI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, err := r.getToken(id)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", reverts.ErrTokenNotFound
	}
	return token.URI, nil
}

// Get returns the full metadata of token id.
func (r *Registry) Get(id uint64) (*Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, err := r.getToken(id)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, reverts.ErrTokenNotFound
	}
	return &Metadata{
		ID:       id,
		Owner:    token.Owner,
		Issuer:   token.Issuer,
		URI:      token.URI,
		MintedAt: token.MintedAt,
	}, nil
}

// BalanceOf returns how many tokens addr currently holds.
func (r *Registry) BalanceOf(addr soul.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balance(addr)
}

// NextTokenID returns the id the next mint will assign.
func (r *Registry) NextTokenID() (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextID()
}

// ResolveOwner resolves ownership for the staking engine. Refs of a foreign
// collection resolve to TokenNotFound.
func (r *Registry) ResolveOwner(ref soul.TokenRef) (soul.Address, error) {
	if ref.Collection != r.collection {
		return soul.Address{}, reverts.ErrTokenNotFound
	}
	return r.OwnerOf(ref.ID)
}

func (r *Registry) getToken(id uint64) (*Token, error) {
	data, err := r.tokens.Get(idKey(id))
	if err != nil {
		if r.tokens.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get token")
	}
	var token Token
	if err := rlp.DecodeBytes(data, &token); err != nil {
		return nil, errors.Wrap(err, "failed to decode token")
	}
	return &token, nil
}

func (r *Registry) putToken(p kv.Putter, id uint64, token *Token) error {
	data, err := rlp.EncodeToBytes(token)
	if err != nil {
		return errors.Wrap(err, "failed to encode token")
	}
	if err := tokensBucket.ProxyPutter(p).Put(idKey(id), data); err != nil {
		return errors.Wrap(err, "failed to save token")
	}
	return nil
}

func (r *Registry) balance(addr soul.Address) (uint64, error) {
	data, err := r.balances.Get(addr.Bytes())
	if err != nil {
		if r.balances.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get balance")
	}
	return binary.BigEndian.Uint64(data), nil
}

func (r *Registry) addBalance(p kv.Putter, addr soul.Address, delta int64) error {
	balance, err := r.balance(addr)
	if err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(int64(balance)+delta))
	if err := balancesBucket.ProxyPutter(p).Put(addr.Bytes(), b[:]); err != nil {
		return errors.Wrap(err, "failed to save balance")
	}
	return nil
}

func (r *Registry) nextID() (uint64, error) {
	data, err := r.slots.Get(slotNextID)
	if err != nil {
		if r.slots.IsNotFound(err) {
			return firstTokenID, nil
		}
		return 0, errors.Wrap(err, "failed to get next id")
	}
	return binary.BigEndian.Uint64(data), nil
}

func (r *Registry) setNextID(p kv.Putter, id uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	if err := slotsBucket.ProxyPutter(p).Put(slotNextID, b[:]); err != nil {
		return errors.Wrap(err, "failed to save next id")
	}
	return nil
}

// appendEvent records an audit event after a committed mutation. The token
// state is already final here, so a failing event db only logs.
func (r *Registry) appendEvent(ev *eventdb.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Insert(ev); err != nil {
		logger.Warn("failed to append event", "kind", ev.Kind, "err", err)
	}
}

func idKey(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}
