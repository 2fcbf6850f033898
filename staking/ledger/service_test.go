// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulstake/soulstake/lvldb"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

var (
	alice = soul.MustParseAddress("0x00000000000000000000000000000000000000aa")
	bob   = soul.MustParseAddress("0x00000000000000000000000000000000000000bb")
)

func newService(t *testing.T) (*Service, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, 10000), db
}

func TestCreditDebit(t *testing.T) {
	svc, db := newService(t)

	_, err := svc.Credit(db, alice, big.NewInt(0))
	assert.Equal(t, reverts.ErrInvalidAmount, err)
	_, err = svc.Credit(db, alice, nil)
	assert.Equal(t, reverts.ErrInvalidAmount, err)

	balance, err := svc.Credit(db, alice, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), balance)

	balance, err = svc.Credit(db, alice, big.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), balance)

	_, err = svc.Debit(db, alice, big.NewInt(200))
	assert.Equal(t, reverts.ErrInsufficientBalance, err)

	_, err = svc.Debit(db, bob, big.NewInt(1))
	assert.Equal(t, reverts.ErrNoStakeToWithdraw, err)

	balance, err = svc.Debit(db, alice, big.NewInt(150))
	require.NoError(t, err)
	assert.Equal(t, "0", balance.String())

	totals, err := svc.Totals()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), totals.Staked)
	assert.Equal(t, big.NewInt(150), totals.Withdrawn)
}

func TestApplyResolution(t *testing.T) {
	svc, db := newService(t)

	_, err := svc.Credit(db, alice, big.NewInt(100))
	require.NoError(t, err)

	score, slashed, err := svc.ApplyResolution(db, alice, big.NewInt(10), 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), score)
	assert.Equal(t, "0", slashed.String())

	// decrease larger than current score clamps at zero
	score, _, err = svc.ApplyResolution(db, alice, big.NewInt(-25), 0)
	require.NoError(t, err)
	assert.Equal(t, "0", score.String())

	// failure with slashing burns part of the balance
	_, slashed, err = svc.ApplyResolution(db, alice, big.NewInt(-10), 2500)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), slashed)

	acc, err := svc.Account(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(75), acc.Balance)

	totals, err := svc.Totals()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), totals.Slashed)
	assert.Equal(t, "0", totals.Score.String())
}

func TestBlacklistGate(t *testing.T) {
	svc, db := newService(t)

	_, err := svc.Credit(db, alice, big.NewInt(100))
	require.NoError(t, err)

	assert.Equal(t, reverts.ErrUserNotBlacklisted, svc.SetBlacklisted(db, alice, false))
	require.NoError(t, svc.SetBlacklisted(db, alice, true))

	_, err = svc.Credit(db, alice, big.NewInt(1))
	assert.Equal(t, reverts.ErrUserBlacklisted, err)
	_, err = svc.Debit(db, alice, big.NewInt(1))
	assert.Equal(t, reverts.ErrUserBlacklisted, err)
	assert.Equal(t, reverts.ErrUserBlacklisted, svc.SetMultiplierBps(db, alice, 20000))

	// resolutions still land while blacklisted
	score, _, err := svc.ApplyResolution(db, alice, big.NewInt(5), 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), score)

	require.NoError(t, svc.SetBlacklisted(db, alice, false))
	_, err = svc.Credit(db, alice, big.NewInt(1))
	require.NoError(t, err)
}

func TestMultiplierPrecedence(t *testing.T) {
	svc, db := newService(t)

	// configured default when nothing is set
	bps, err := svc.MultiplierBps(alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(10000), bps)

	assert.Equal(t, reverts.ErrInvalidMultiplier, svc.SetMultiplierBps(db, alice, 0))
	assert.Equal(t, reverts.ErrInvalidMultiplier, svc.SetMultiplierBps(db, alice, MaxMultiplierBps+1))

	// global slot overrides the configured default
	require.NoError(t, svc.SetMultiplierBps(db, soul.Address{}, 20000))
	bps, err = svc.MultiplierBps(alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(20000), bps)

	// account value wins over the global slot
	require.NoError(t, svc.SetMultiplierBps(db, alice, 30000))
	bps, err = svc.MultiplierBps(alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(30000), bps)

	bps, err = svc.MultiplierBps(bob)
	require.NoError(t, err)
	assert.Equal(t, uint32(20000), bps)
}
