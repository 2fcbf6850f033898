// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulstake/soulstake/authority"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/lvldb"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
	"github.com/soulstake/soulstake/staking/lockup"
)

var (
	owner    = soul.MustParseAddress("0x0000000000000000000000000000000000000001")
	resolver = soul.MustParseAddress("0x0000000000000000000000000000000000000002")
	alice    = soul.MustParseAddress("0x00000000000000000000000000000000000000aa")
	bob      = soul.MustParseAddress("0x00000000000000000000000000000000000000bb")
	carol    = soul.MustParseAddress("0x00000000000000000000000000000000000000cc")

	collection = soul.MustParseAddress("0x00000000000000000000000000000000000000ff")
)

type fakeOracle map[soul.TokenRef]soul.Address

func (o fakeOracle) ResolveOwner(ref soul.TokenRef) (soul.Address, error) {
	addr, ok := o[ref]
	if !ok {
		return soul.Address{}, reverts.ErrTokenNotFound
	}
	return addr, nil
}

type fakeAuth struct {
	owner     soul.Address
	resolvers map[soul.Address]bool
}

func (a *fakeAuth) IsOwner(addr soul.Address) (bool, error) {
	return addr == a.owner, nil
}

func (a *fakeAuth) IsAuthorized(role authority.Role, addr soul.Address) (bool, error) {
	if addr == a.owner {
		return true, nil
	}
	if role == authority.RoleResolver {
		return a.resolvers[addr], nil
	}
	return false, nil
}

type fixture struct {
	engine *Engine
	oracle fakeOracle
	now    uint64
}

func (f *fixture) advance(seconds uint64) {
	f.now += seconds
}

func (f *fixture) token(id uint64) soul.TokenRef {
	return soul.TokenRef{Collection: collection, ID: id}
}

func newFixture(t *testing.T, params *Params, opts ...Option) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		oracle: fakeOracle{},
		now:    1_000_000,
	}
	auth := &fakeAuth{owner: owner, resolvers: map[soul.Address]bool{resolver: true}}

	opts = append(opts, WithNow(func() time.Time {
		return time.Unix(int64(f.now), 0)
	}))
	f.engine, err = New(db, params, f.oracle, auth, opts...)
	require.NoError(t, err)
	return f
}

func (f *fixture) mustStake(t *testing.T, user soul.Address, tokenID uint64, task string, amount int64) {
	f.oracle[f.token(tokenID)] = user
	_, err := f.engine.Stake(user, f.token(tokenID), soul.TaskID(task), big.NewInt(amount))
	require.NoError(t, err)
}

func (f *fixture) balanceOf(t *testing.T, user soul.Address) *big.Int {
	acc, err := f.engine.Account(user)
	require.NoError(t, err)
	return acc.Balance
}

func (f *fixture) scoreOf(t *testing.T, user soul.Address) *big.Int {
	acc, err := f.engine.Account(user)
	require.NoError(t, err)
	return acc.Score
}

func TestStakeResolveWithdrawLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	f.oracle[f.token(1)] = alice
	lock, err := f.engine.Stake(alice, f.token(1), soul.TaskID("quest-7"), big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, lockup.StateLocked, lock.State)
	assert.Equal(t, alice, lock.Owner)

	locked, err := f.engine.IsLocked(f.token(1))
	require.NoError(t, err)
	assert.True(t, locked)

	score, err := f.engine.ResolveTask(resolver, f.token(1), true)
	require.NoError(t, err)
	// base delta 10 at the default 1x multiplier
	assert.Equal(t, big.NewInt(10), score)
	assert.Equal(t, big.NewInt(100), f.balanceOf(t, alice))

	locked, err = f.engine.IsLocked(f.token(1))
	require.NoError(t, err)
	assert.False(t, locked)

	history, err := f.engine.LockHistory(f.token(1))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, lockup.StateResolved, history[0].State)

	f.advance(DefaultParams().MinLockDuration)
	balance, err := f.engine.Withdraw(alice, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, "0", balance.String())
}

func TestStakeValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.oracle[f.token(1)] = alice

	_, err := f.engine.Stake(soul.Address{}, f.token(1), soul.TaskID("t"), big.NewInt(1))
	assert.Equal(t, reverts.ErrAddressZeroNotAllowed, err)

	_, err = f.engine.Stake(alice, f.token(1), soul.TaskID("t"), nil)
	assert.Equal(t, reverts.ErrInvalidAmount, err)

	_, err = f.engine.Stake(alice, f.token(1), soul.TaskID("t"), big.NewInt(0))
	assert.Equal(t, reverts.ErrInvalidAmount, err)

	// token owned by someone else
	_, err = f.engine.Stake(bob, f.token(1), soul.TaskID("t"), big.NewInt(1))
	assert.Equal(t, reverts.ErrTokenNotOwnedBySender, err)

	// unknown token propagates the oracle failure
	_, err = f.engine.Stake(alice, f.token(9), soul.TaskID("t"), big.NewInt(1))
	assert.Equal(t, reverts.ErrTokenNotFound, err)
}

func TestSingleActiveLock(t *testing.T) {
	f := newFixture(t, nil)
	f.mustStake(t, alice, 1, "task-a", 50)

	_, err := f.engine.Stake(alice, f.token(1), soul.TaskID("task-b"), big.NewInt(10))
	assert.Equal(t, reverts.ErrTokenAlreadyLocked, err)

	_, err = f.engine.ResolveTask(resolver, f.token(1), true)
	require.NoError(t, err)

	// a resolved lock frees the token for a fresh stake
	_, err = f.engine.Stake(alice, f.token(1), soul.TaskID("task-b"), big.NewInt(10))
	require.NoError(t, err)
}

func TestWithdrawCooldown(t *testing.T) {
	f := newFixture(t, nil)
	f.mustStake(t, alice, 1, "task", 100)

	// same instant
	_, err := f.engine.Withdraw(alice, big.NewInt(100))
	assert.Equal(t, reverts.ErrTooEarlyToWithdraw, err)

	f.advance(DefaultParams().MinLockDuration - 1)
	_, err = f.engine.Withdraw(alice, big.NewInt(100))
	assert.Equal(t, reverts.ErrTooEarlyToWithdraw, err)

	f.advance(1)
	balance, err := f.engine.Withdraw(alice, big.NewInt(40))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), balance)

	_, err = f.engine.Withdraw(alice, big.NewInt(100))
	assert.Equal(t, reverts.ErrInsufficientBalance, err)

	_, err = f.engine.Withdraw(bob, big.NewInt(1))
	assert.Equal(t, reverts.ErrNoStakeToWithdraw, err)

	// a fresh stake restarts the cooldown
	f.mustStake(t, alice, 2, "task-2", 10)
	_, err = f.engine.Withdraw(alice, big.NewInt(10))
	assert.Equal(t, reverts.ErrTooEarlyToWithdraw, err)
}

func TestResolveAuthorization(t *testing.T) {
	f := newFixture(t, nil)
	f.mustStake(t, alice, 1, "task", 100)

	_, err := f.engine.ResolveTask(bob, f.token(1), true)
	assert.Equal(t, reverts.ErrUnauthorized, err)

	_, err = f.engine.ResolveTask(resolver, f.token(9), true)
	assert.Equal(t, reverts.ErrLockNotFound, err)

	_, err = f.engine.ResolveTask(resolver, f.token(1), true)
	require.NoError(t, err)

	// no double counting
	_, err = f.engine.ResolveTask(resolver, f.token(1), true)
	assert.Equal(t, reverts.ErrLockNotFound, err)
	assert.Equal(t, big.NewInt(10), f.scoreOf(t, alice))
}

func TestScoreFloor(t *testing.T) {
	f := newFixture(t, nil)

	for id := uint64(1); id <= 3; id++ {
		f.mustStake(t, alice, id, "task", 10)
		score, err := f.engine.ResolveTask(resolver, f.token(id), false)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(0), score, "score must never go negative")
	}
}

func TestFailureSlashing(t *testing.T) {
	params := DefaultParams()
	params.SlashBps = 5000 // burn half on failure
	f := newFixture(t, params)

	f.mustStake(t, alice, 1, "task", 100)
	_, err := f.engine.ResolveTask(resolver, f.token(1), false)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), f.balanceOf(t, alice))

	totals, err := f.engine.Totals()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), totals.Staked)
	assert.Equal(t, big.NewInt(50), totals.Slashed)

	// success resolutions never slash
	f.mustStake(t, alice, 2, "task-2", 40)
	_, err = f.engine.ResolveTask(resolver, f.token(2), true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(90), f.balanceOf(t, alice))
}

func TestBlacklist(t *testing.T) {
	f := newFixture(t, nil)
	f.mustStake(t, alice, 1, "task", 100)
	_, err := f.engine.ResolveTask(resolver, f.token(1), true)
	require.NoError(t, err)

	assert.Equal(t, reverts.ErrNotOwner, f.engine.Blacklist(bob, alice))
	require.NoError(t, f.engine.Blacklist(owner, alice))

	f.oracle[f.token(2)] = alice
	_, err = f.engine.Stake(alice, f.token(2), soul.TaskID("task-2"), big.NewInt(1))
	assert.Equal(t, reverts.ErrUserBlacklisted, err)

	f.advance(DefaultParams().MinLockDuration)
	_, err = f.engine.Withdraw(alice, big.NewInt(1))
	assert.Equal(t, reverts.ErrUserBlacklisted, err)

	// un-blacklisting restores operation, balance and score untouched
	require.NoError(t, f.engine.Unblacklist(owner, alice))
	assert.Equal(t, big.NewInt(100), f.balanceOf(t, alice))
	assert.Equal(t, big.NewInt(10), f.scoreOf(t, alice))

	_, err = f.engine.Withdraw(alice, big.NewInt(100))
	require.NoError(t, err)

	assert.Equal(t, reverts.ErrUserNotBlacklisted, f.engine.Unblacklist(owner, alice))
}

func TestBlacklistBeforeValidation(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Blacklist(owner, alice))

	// a blacklisted caller is rejected as blacklisted even when the
	// amount would not validate either
	_, err := f.engine.Stake(alice, f.token(1), soul.TaskID("task"), big.NewInt(0))
	assert.Equal(t, reverts.ErrUserBlacklisted, err)
	_, err = f.engine.Stake(alice, f.token(1), soul.TaskID("task"), nil)
	assert.Equal(t, reverts.ErrUserBlacklisted, err)

	_, err = f.engine.Withdraw(alice, big.NewInt(0))
	assert.Equal(t, reverts.ErrUserBlacklisted, err)
	_, err = f.engine.Withdraw(alice, nil)
	assert.Equal(t, reverts.ErrUserBlacklisted, err)

	// amount validation still applies to everyone else
	_, err = f.engine.Withdraw(bob, big.NewInt(0))
	assert.Equal(t, reverts.ErrInvalidAmount, err)
}

func TestSetMultiplier(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, reverts.ErrNotOwner, f.engine.SetMultiplier(bob, alice, 20000))
	assert.Equal(t, reverts.ErrInvalidMultiplier, f.engine.SetMultiplier(owner, alice, 0))
	assert.Equal(t, reverts.ErrInvalidMultiplier, f.engine.SetMultiplier(owner, alice, 50001))

	// per-user multiplier scales the resolution delta
	require.NoError(t, f.engine.SetMultiplier(owner, alice, 30000))
	f.mustStake(t, alice, 1, "task", 10)
	score, err := f.engine.ResolveTask(resolver, f.token(1), true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), score)

	// the zero address sets the global default, picked up by untouched users
	require.NoError(t, f.engine.SetMultiplier(owner, soul.Address{}, 20000))
	f.mustStake(t, bob, 2, "task-2", 10)
	score, err = f.engine.ResolveTask(resolver, f.token(2), true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), score)

	// explicit per-user value still wins over the global
	f.mustStake(t, alice, 3, "task-3", 10)
	score, err = f.engine.ResolveTask(resolver, f.token(3), true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), score)
}

func TestMinStake(t *testing.T) {
	params := DefaultParams()
	params.MinStake = 50
	f := newFixture(t, params)

	f.oracle[f.token(1)] = alice
	_, err := f.engine.Stake(alice, f.token(1), soul.TaskID("task"), big.NewInt(10))
	assert.Equal(t, reverts.ErrInsufficientStake, err)

	// the failed stake left nothing behind
	locked, err := f.engine.IsLocked(f.token(1))
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, "0", f.balanceOf(t, alice).String())

	_, err = f.engine.Stake(alice, f.token(1), soul.TaskID("task"), big.NewInt(50))
	require.NoError(t, err)

	// topping up an existing balance may stay below min only if total passes
	f.mustStake(t, alice, 2, "task-2", 5)
}

func TestConservation(t *testing.T) {
	params := DefaultParams()
	params.SlashBps = 2500
	f := newFixture(t, params)

	users := []soul.Address{alice, bob, carol}
	for i, user := range users {
		f.mustStake(t, user, uint64(i*10+1), "first", int64(100*(i+1)))
		f.mustStake(t, user, uint64(i*10+2), "second", 37)
	}
	_, err := f.engine.ResolveTask(resolver, f.token(1), false)
	require.NoError(t, err)
	_, err = f.engine.ResolveTask(resolver, f.token(11), true)
	require.NoError(t, err)

	f.advance(DefaultParams().MinLockDuration)
	_, err = f.engine.Withdraw(carol, big.NewInt(123))
	require.NoError(t, err)

	totals, err := f.engine.Totals()
	require.NoError(t, err)

	sum := new(big.Int)
	for _, user := range users {
		sum.Add(sum, f.balanceOf(t, user))
	}
	expected := new(big.Int).Sub(totals.Staked, totals.Withdrawn)
	expected.Sub(expected, totals.Slashed)
	assert.Equal(t, expected, sum, "sum(balances) == staked - withdrawn - slashed")
}

func TestEventsAppended(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := newFixture(t, nil, WithEventDB(db))
	f.mustStake(t, alice, 1, "task", 100)
	_, err = f.engine.ResolveTask(resolver, f.token(1), true)
	require.NoError(t, err)

	events, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, eventdb.KindStake, events[0].Kind)
	assert.Equal(t, eventdb.KindResolve, events[1].Kind)
	assert.Equal(t, alice, events[1].User)
	assert.True(t, events[1].Success)
	assert.Equal(t, big.NewInt(10), events[1].Score)
}
