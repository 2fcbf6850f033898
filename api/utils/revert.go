// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"

	"github.com/soulstake/soulstake/reverts"
)

// RevertError maps engine revert errors to http errors by group: access
// control to 403, validation to 400, state conflicts and timing to 409.
// Non-revert errors pass through and end up as 500.
func RevertError(err error) error {
	if err == nil || !reverts.IsRevertErr(err) {
		return err
	}
	switch reverts.GroupOf(err) {
	case reverts.GroupAccess:
		return HTTPError(err, http.StatusForbidden)
	case reverts.GroupValidation:
		return HTTPError(err, http.StatusBadRequest)
	case reverts.GroupStateConflict, reverts.GroupTiming:
		return HTTPError(err, http.StatusConflict)
	default:
		return err
	}
}
