// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the reputation staking engine. Users back a
// stake with a soulbound token they own, committing the token to an external
// task; an authorized resolver later reports the outcome, which releases the
// token and adjusts the user's reputation score.
package staking

import (
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/authority"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/log"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
	"github.com/soulstake/soulstake/staking/cooldown"
	"github.com/soulstake/soulstake/staking/ledger"
	"github.com/soulstake/soulstake/staking/lockup"
)

var logger = log.WithContext("pkg", "staking")

// OwnershipOracle resolves the current owner of a token. The call is
// side-effect-free; a failing oracle aborts the stake with no state change.
type OwnershipOracle interface {
	ResolveOwner(ref soul.TokenRef) (soul.Address, error)
}

// Authorizer answers the capability checks the engine needs.
type Authorizer interface {
	IsOwner(addr soul.Address) (bool, error)
	IsAuthorized(role authority.Role, addr soul.Address) (bool, error)
}

// Engine is the orchestrator over the stake ledger, the lock manager and the
// withdrawal clock. Public operations are strictly serialized; each stages
// its mutations in a batch and commits once, so a failing step leaves no
// partial state.
type Engine struct {
	mu     sync.Mutex
	store  kv.Store
	params *Params

	ledger *ledger.Service
	locks  *lockup.Service
	clock  *cooldown.Service

	oracle OwnershipOracle
	auth   Authorizer
	events *eventdb.EventDB

	now func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithNow overrides the engine's time source. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEventDB attaches an audit trail. Events are appended after a
// successful commit.
func WithEventDB(db *eventdb.EventDB) Option {
	return func(e *Engine) { e.events = db }
}

// New creates the engine on top of store.
func New(store kv.Store, params *Params, oracle OwnershipOracle, auth Authorizer, opts ...Option) (*Engine, error) {
	if params == nil {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	engine := &Engine{
		store:  store,
		params: params,
		ledger: ledger.New(store, params.DefaultMultiplierBps),
		locks:  lockup.New(store),
		clock:  cooldown.New(store),
		oracle: oracle,
		auth:   auth,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Params returns the engine's policy.
func (e *Engine) Params() *Params {
	copied := *e.params
	return &copied
}

// Stake commits amount of caller's reputation collateral, backed by token,
// to the task. The token must be owned by caller and not already locked.
func (e *Engine) Stake(caller soul.Address, token soul.TokenRef, taskID soul.Bytes32, amount *big.Int) (lock *lockup.Lock, err error) {
	defer func() { countOp("stake", err) }()

	if caller.IsZero() {
		return nil, reverts.ErrAddressZeroNotAllowed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("staking", "caller", caller, "token", token, "task", taskID, "amount", amount)

	// the blacklist gate outranks input validation
	acc, err := e.ledger.Account(caller)
	if err != nil {
		return nil, err
	}
	if acc.Blacklisted {
		return nil, reverts.ErrUserBlacklisted
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.ErrInvalidAmount
	}

	// ownership is revalidated on every stake, never cached
	owner, err := e.oracle.ResolveOwner(token)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, reverts.ErrTokenNotOwnedBySender
	}

	now := e.unixNow()
	batch := e.store.NewBatch()

	lock, err = e.locks.Acquire(batch, token, taskID, caller, now)
	if err != nil {
		return nil, err
	}
	newBalance, err := e.ledger.Credit(batch, caller, amount)
	if err != nil {
		return nil, err
	}
	if e.params.MinStake > 0 && newBalance.Cmp(new(big.Int).SetUint64(e.params.MinStake)) < 0 {
		return nil, reverts.ErrInsufficientStake
	}
	if err := e.clock.RecordStake(batch, caller, now); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "failed to commit stake")
	}

	metricActiveLocks().Add(1)
	e.appendEvent(&eventdb.Event{
		Time:       now,
		Kind:       eventdb.KindStake,
		User:       caller,
		Collection: token.Collection,
		TokenID:    token.ID,
		TaskID:     taskID,
		Amount:     amount,
	})
	logger.Info("staked", "caller", caller, "token", token, "task", taskID, "amount", amount, "balance", newBalance)
	return lock, nil
}

// Withdraw debits amount from caller's stake once the cooldown since the
// last stake has elapsed. It returns the new balance.
func (e *Engine) Withdraw(caller soul.Address, amount *big.Int) (newBalance *big.Int, err error) {
	defer func() { countOp("withdraw", err) }()

	if caller.IsZero() {
		return nil, reverts.ErrAddressZeroNotAllowed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("withdrawing", "caller", caller, "amount", amount)

	// the blacklist gate outranks input validation
	acc, err := e.ledger.Account(caller)
	if err != nil {
		return nil, err
	}
	if acc.Blacklisted {
		return nil, reverts.ErrUserBlacklisted
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.ErrInvalidAmount
	}

	now := e.unixNow()
	if err := e.clock.CheckWithdrawable(caller, now, e.params.MinLockDuration); err != nil {
		return nil, err
	}

	batch := e.store.NewBatch()
	newBalance, err = e.ledger.Debit(batch, caller, amount)
	if err != nil {
		return nil, err
	}
	if err := e.clock.RecordWithdraw(batch, caller, now); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "failed to commit withdrawal")
	}

	e.appendEvent(&eventdb.Event{
		Time:   now,
		Kind:   eventdb.KindWithdraw,
		User:   caller,
		Amount: amount,
	})
	logger.Info("withdrawn", "caller", caller, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

// ResolveTask reports the outcome of the task the token is committed to.
// Only an authorized resolver may call. The lock becomes terminal, the
// owner's score moves by baseDelta scaled by their multiplier, and on
// failure slashBps of the balance is burned. It returns the new score.
func (e *Engine) ResolveTask(caller soul.Address, token soul.TokenRef, success bool) (newScore *big.Int, err error) {
	defer func() { countOp("resolve", err) }()

	if caller.IsZero() {
		return nil, reverts.ErrAddressZeroNotAllowed
	}
	ok, err := e.auth.IsAuthorized(authority.RoleResolver, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("resolving", "caller", caller, "token", token, "success", success)

	now := e.unixNow()
	batch := e.store.NewBatch()

	lock, err := e.locks.Release(batch, token, now)
	if err != nil {
		return nil, err
	}

	mulBps, err := e.ledger.MultiplierBps(lock.Owner)
	if err != nil {
		return nil, err
	}
	delta := new(big.Int).SetUint64(e.params.BaseDelta)
	delta.Mul(delta, new(big.Int).SetUint64(uint64(mulBps)))
	delta.Quo(delta, big.NewInt(10000))

	slashBps := uint32(0)
	if !success {
		delta.Neg(delta)
		slashBps = e.params.SlashBps
	}

	newScore, slashed, err := e.ledger.ApplyResolution(batch, lock.Owner, delta, slashBps)
	if err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "failed to commit resolution")
	}

	metricActiveLocks().Add(-1)
	e.appendEvent(&eventdb.Event{
		Time:       now,
		Kind:       eventdb.KindResolve,
		User:       lock.Owner,
		Collection: token.Collection,
		TokenID:    token.ID,
		TaskID:     lock.TaskID,
		Amount:     slashed,
		Score:      newScore,
		Success:    success,
	})
	logger.Info("resolved", "token", token, "task", lock.TaskID, "owner", lock.Owner,
		"success", success, "score", newScore, "slashed", slashed)
	return newScore, nil
}

// Blacklist bars user from staking and withdrawing. Owner only.
func (e *Engine) Blacklist(caller, user soul.Address) (err error) {
	defer func() { countOp("blacklist", err) }()
	return e.setBlacklisted(caller, user, true, eventdb.KindBlacklist)
}

// Unblacklist restores user's access. Owner only; balance and score are
// untouched.
func (e *Engine) Unblacklist(caller, user soul.Address) (err error) {
	defer func() { countOp("unblacklist", err) }()
	return e.setBlacklisted(caller, user, false, eventdb.KindUnblacklist)
}

func (e *Engine) setBlacklisted(caller, user soul.Address, flag bool, kind eventdb.Kind) error {
	if caller.IsZero() || user.IsZero() {
		return reverts.ErrAddressZeroNotAllowed
	}
	ok, err := e.auth.IsOwner(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotOwner
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.store.NewBatch()
	if err := e.ledger.SetBlacklisted(batch, user, flag); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to commit blacklist change")
	}

	e.appendEvent(&eventdb.Event{
		Time: e.unixNow(),
		Kind: kind,
		User: user,
	})
	logger.Info("blacklist changed", "caller", caller, "user", user, "blacklisted", flag)
	return nil
}

// SetMultiplier sets user's score multiplier in basis points. The zero user
// address updates the global default. Owner only.
func (e *Engine) SetMultiplier(caller, user soul.Address, bps uint32) (err error) {
	defer func() { countOp("set_multiplier", err) }()

	if caller.IsZero() {
		return reverts.ErrAddressZeroNotAllowed
	}
	ok, err := e.auth.IsOwner(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotOwner
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.store.NewBatch()
	if err := e.ledger.SetMultiplierBps(batch, user, bps); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to commit multiplier change")
	}

	e.appendEvent(&eventdb.Event{
		Time:  e.unixNow(),
		Kind:  eventdb.KindMultiplier,
		User:  user,
		Score: new(big.Int).SetUint64(uint64(bps)),
	})
	logger.Info("multiplier set", "caller", caller, "user", user, "bps", bps)
	return nil
}

// Account returns user's stake account, zero-valued if never used.
func (e *Engine) Account(user soul.Address) (*ledger.Account, error) {
	return e.ledger.Account(user)
}

// MultiplierBps resolves user's effective score multiplier.
func (e *Engine) MultiplierBps(user soul.Address) (uint32, error) {
	return e.ledger.MultiplierBps(user)
}

// Times returns user's last stake/withdraw timestamps.
func (e *Engine) Times(user soul.Address) (*cooldown.Times, error) {
	return e.clock.Times(user)
}

// GetLock returns the active lock for token, or nil.
func (e *Engine) GetLock(token soul.TokenRef) (*lockup.Lock, error) {
	return e.locks.Get(token)
}

// IsLocked reports whether token is committed to an unresolved task.
func (e *Engine) IsLocked(token soul.TokenRef) (bool, error) {
	return e.locks.IsLocked(token)
}

// LockHistory returns token's resolved locks, oldest first.
func (e *Engine) LockHistory(token soul.TokenRef) ([]*lockup.Lock, error) {
	return e.locks.History(token)
}

// Totals returns the global conservation counters. At all times
// sum(balances) == Staked - Withdrawn - Slashed.
func (e *Engine) Totals() (*ledger.Totals, error) {
	return e.ledger.Totals()
}

func (e *Engine) unixNow() uint64 {
	return uint64(e.now().Unix())
}

// appendEvent records an audit event after a committed operation. The ledger
// state is already final here, so a failing event db only logs.
func (e *Engine) appendEvent(ev *eventdb.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Insert(ev); err != nil {
		logger.Warn("failed to append event", "kind", ev.Kind, "err", err)
	}
}
