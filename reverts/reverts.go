// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// Group classifies reverts by cause, primarily for mapping to transport status codes.
type Group uint8

const (
	GroupAccess Group = iota + 1
	GroupValidation
	GroupStateConflict
	GroupTiming
)

// ErrRevert is a business rule rejection. It never wraps infrastructure
// failures; callers use IsRevertErr to tell the two apart.
type ErrRevert struct {
	message string
	group   Group
}

func New(group Group, message string) *ErrRevert {
	return &ErrRevert{
		message: message,
		group:   group,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Group() Group {
	return e.group
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// GroupOf returns the revert group, or 0 if err is not a revert.
func GroupOf(err error) Group {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.group
	}
	return 0
}

// The closed set of failures the engine and its collaborators may return.
var (
	// access control
	ErrNotOwner                 = New(GroupAccess, "caller is not the owner")
	ErrUnauthorized             = New(GroupAccess, "caller is not authorized")
	ErrUserBlacklisted          = New(GroupAccess, "user is blacklisted")
	ErrNotAuthorizedIssuer      = New(GroupAccess, "caller is not an authorized issuer")
	ErrSelfRevocationNotAllowed = New(GroupAccess, "token owner cannot revoke own token")

	// validation
	ErrInvalidAmount         = New(GroupValidation, "invalid amount")
	ErrInvalidMultiplier     = New(GroupValidation, "invalid multiplier")
	ErrAddressZeroNotAllowed = New(GroupValidation, "zero address not allowed")
	ErrEmptyTokenURI         = New(GroupValidation, "token URI is empty")

	// state conflict
	ErrTokenAlreadyLocked    = New(GroupStateConflict, "token is already locked")
	ErrLockNotFound          = New(GroupStateConflict, "no active lock for token")
	ErrTokenNotOwnedBySender = New(GroupStateConflict, "token is not owned by sender")
	ErrTokenNotFound         = New(GroupStateConflict, "token not found")
	ErrAlreadyAuthorized     = New(GroupStateConflict, "address already authorized")
	ErrNotAuthorized         = New(GroupStateConflict, "address not authorized")
	ErrNotPendingOwner       = New(GroupStateConflict, "caller is not the pending owner")
	ErrUserNotBlacklisted    = New(GroupStateConflict, "user is not blacklisted")

	// business timing
	ErrTooEarlyToWithdraw  = New(GroupTiming, "too early to withdraw")
	ErrNoStakeToWithdraw   = New(GroupTiming, "no stake to withdraw")
	ErrInsufficientBalance = New(GroupTiming, "insufficient staked balance")
	ErrInsufficientStake   = New(GroupTiming, "stake below minimum")
)
