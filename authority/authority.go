// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/log"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

var logger = log.WithContext("pkg", "authority")

// Role names a capability granted to an address.
type Role string

const (
	RoleIssuer   Role = "issuer"   // may mint and revoke soulbound tokens
	RoleResolver Role = "resolver" // may report task outcomes
)

const (
	rolesBucket = kv.Bucket("authority-roles")
	slotsBucket = kv.Bucket("authority-slots")
)

var (
	slotOwner        = []byte("owner")
	slotPendingOwner = []byte("pending-owner")
)

// Entry carries the metadata of a granted role.
type Entry struct {
	Name         string
	RegisteredAt uint64 // unix seconds
}

// Record is an Entry together with its grantee, as listed.
type Record struct {
	Address soul.Address `json:"address"`
	Name    string       `json:"name"`
	// unix seconds
	RegisteredAt uint64 `json:"registeredAt"`
}

// Authority is the registry of the contract owner and of issuer/resolver
// grants. Ownership transfer is two-step: the new owner must accept.
type Authority struct {
	mu    sync.RWMutex
	roles kv.GetPutter
	slots kv.GetPutter
}

// New creates the authority registry backed by the given store.
func New(store kv.GetPutter) *Authority {
	return &Authority{
		roles: struct {
			kv.Getter
			kv.Putter
		}{rolesBucket.ProxyGetter(store), rolesBucket.ProxyPutter(store)},
		slots: struct {
			kv.Getter
			kv.Putter
		}{slotsBucket.ProxyGetter(store), slotsBucket.ProxyPutter(store)},
	}
}

// Init sets the initial owner if none is recorded yet.
func (a *Authority) Init(owner soul.Address) error {
	if owner.IsZero() {
		return reverts.ErrAddressZeroNotAllowed
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.owner()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return nil
	}
	logger.Info("initialized owner", "owner", owner)
	return a.slots.Put(slotOwner, owner.Bytes())
}

// Owner returns the current contract owner.
func (a *Authority) Owner() (soul.Address, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner()
}

// PendingOwner returns the address that may accept ownership, if any.
func (a *Authority) PendingOwner() (soul.Address, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.getSlotAddress(slotPendingOwner)
}

// IsOwner reports whether addr is the contract owner.
func (a *Authority) IsOwner(addr soul.Address) (bool, error) {
	owner, err := a.Owner()
	if err != nil {
		return false, err
	}
	return !owner.IsZero() && owner == addr, nil
}

// TransferOwnership nominates a new owner. Ownership only moves once the
// nominee calls AcceptOwnership.
func (a *Authority) TransferOwnership(caller, newOwner soul.Address) error {
	if newOwner.IsZero() {
		return reverts.ErrAddressZeroNotAllowed
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	owner, err := a.owner()
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.ErrNotOwner
	}
	logger.Info("ownership transfer started", "owner", owner, "pending", newOwner)
	return a.slots.Put(slotPendingOwner, newOwner.Bytes())
}

// AcceptOwnership completes a pending ownership transfer.
func (a *Authority) AcceptOwnership(caller soul.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	pending, err := a.getSlotAddress(slotPendingOwner)
	if err != nil {
		return err
	}
	if pending.IsZero() || pending != caller {
		return reverts.ErrNotPendingOwner
	}
	if err := a.slots.Put(slotOwner, caller.Bytes()); err != nil {
		return err
	}
	if err := a.slots.Delete(slotPendingOwner); err != nil {
		return err
	}
	logger.Info("ownership transferred", "owner", caller)
	return nil
}

// Grant authorizes addr for role. Owner only.
func (a *Authority) Grant(caller soul.Address, role Role, addr soul.Address, name string, now uint64) error {
	if addr.IsZero() {
		return reverts.ErrAddressZeroNotAllowed
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireOwner(caller); err != nil {
		return err
	}
	has, err := a.roles.Has(roleKey(role, addr))
	if err != nil {
		return errors.Wrap(err, "failed to check role")
	}
	if has {
		return reverts.ErrAlreadyAuthorized
	}
	data, err := rlp.EncodeToBytes(&Entry{Name: name, RegisteredAt: now})
	if err != nil {
		return errors.Wrap(err, "failed to encode role entry")
	}
	if err := a.roles.Put(roleKey(role, addr), data); err != nil {
		return errors.Wrap(err, "failed to save role entry")
	}
	logger.Info("granted role", "role", role, "address", addr, "name", name)
	return nil
}

// Revoke removes addr's role. Owner only.
func (a *Authority) Revoke(caller soul.Address, role Role, addr soul.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireOwner(caller); err != nil {
		return err
	}
	has, err := a.roles.Has(roleKey(role, addr))
	if err != nil {
		return errors.Wrap(err, "failed to check role")
	}
	if !has {
		return reverts.ErrNotAuthorized
	}
	if err := a.roles.Delete(roleKey(role, addr)); err != nil {
		return errors.Wrap(err, "failed to delete role entry")
	}
	logger.Info("revoked role", "role", role, "address", addr)
	return nil
}

// IsAuthorized reports whether addr holds role. The contract owner holds
// every role implicitly.
func (a *Authority) IsAuthorized(role Role, addr soul.Address) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	owner, err := a.owner()
	if err != nil {
		return false, err
	}
	if !owner.IsZero() && owner == addr {
		return true, nil
	}
	has, err := a.roles.Has(roleKey(role, addr))
	if err != nil {
		return false, errors.Wrap(err, "failed to check role")
	}
	return has, nil
}

// List returns all grants of role.
func (a *Authority) List(role Role) ([]*Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	prefix := []byte(role)
	prefix = append(prefix, ':')
	end := append(append([]byte(nil), []byte(role)...), ':'+1)

	iter := a.roles.NewIterator(kv.Range{From: prefix, To: end})
	defer iter.Release()

	var records []*Record
	for iter.Next() {
		var entry Entry
		if err := rlp.DecodeBytes(iter.Value(), &entry); err != nil {
			return nil, errors.Wrap(err, "failed to decode role entry")
		}
		records = append(records, &Record{
			Address:      soul.BytesToAddress(iter.Key()[len(prefix):]),
			Name:         entry.Name,
			RegisteredAt: entry.RegisteredAt,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate roles")
	}
	return records, nil
}

func (a *Authority) requireOwner(caller soul.Address) error {
	owner, err := a.owner()
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return reverts.ErrNotOwner
	}
	return nil
}

func (a *Authority) owner() (soul.Address, error) {
	return a.getSlotAddress(slotOwner)
}

func (a *Authority) getSlotAddress(slot []byte) (soul.Address, error) {
	data, err := a.slots.Get(slot)
	if err != nil {
		if a.slots.IsNotFound(err) {
			return soul.Address{}, nil
		}
		return soul.Address{}, errors.Wrap(err, "failed to get slot")
	}
	return soul.BytesToAddress(data), nil
}

func roleKey(role Role, addr soul.Address) []byte {
	key := make([]byte, 0, len(role)+1+soul.AddressLength)
	key = append(key, role...)
	key = append(key, ':')
	return append(key, addr.Bytes()...)
}
