// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cooldown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulstake/soulstake/lvldb"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

var user = soul.MustParseAddress("0x00000000000000000000000000000000000000aa")

func newService(t *testing.T) (*Service, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestTimesDefault(t *testing.T) {
	svc, _ := newService(t)

	times, err := svc.Times(user)
	require.NoError(t, err)
	assert.Zero(t, times.LastStake)
	assert.Zero(t, times.LastWithdraw)

	// a user who never staked passes the clock check (balance gating
	// happens elsewhere)
	assert.NoError(t, svc.CheckWithdrawable(user, 86400, 86400))
}

func TestCooldown(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, svc.RecordStake(db, user, 1000))

	assert.Equal(t, reverts.ErrTooEarlyToWithdraw, svc.CheckWithdrawable(user, 1000, 500))
	assert.Equal(t, reverts.ErrTooEarlyToWithdraw, svc.CheckWithdrawable(user, 1499, 500))
	assert.NoError(t, svc.CheckWithdrawable(user, 1500, 500))

	// a new stake restarts the cooldown
	require.NoError(t, svc.RecordStake(db, user, 2000))
	assert.Equal(t, reverts.ErrTooEarlyToWithdraw, svc.CheckWithdrawable(user, 2100, 500))

	require.NoError(t, svc.RecordWithdraw(db, user, 2500))
	times, err := svc.Times(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), times.LastStake)
	assert.Equal(t, uint64(2500), times.LastWithdraw)
}
