// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRevertErr(t *testing.T) {
	assert.True(t, IsRevertErr(ErrNotOwner))
	assert.True(t, IsRevertErr(errors.Wrap(ErrTooEarlyToWithdraw, "withdraw")))
	assert.False(t, IsRevertErr(errors.New("disk failure")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, GroupAccess, GroupOf(ErrUnauthorized))
	assert.Equal(t, GroupValidation, GroupOf(ErrInvalidAmount))
	assert.Equal(t, GroupStateConflict, GroupOf(ErrTokenAlreadyLocked))
	assert.Equal(t, GroupTiming, GroupOf(ErrTooEarlyToWithdraw))

	// groups survive wrapping
	assert.Equal(t, GroupTiming, GroupOf(errors.Wrap(ErrInsufficientBalance, "withdraw")))

	assert.Equal(t, Group(0), GroupOf(errors.New("io error")))
	assert.Equal(t, Group(0), GroupOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := New(GroupValidation, "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, GroupValidation, err.Group())
}
