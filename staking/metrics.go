// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/soulstake/soulstake/metrics"
	"github.com/soulstake/soulstake/reverts"
)

var (
	metricOpCount     = metrics.LazyLoadCounterVec("engine_op_count", []string{"op", "status"})
	metricActiveLocks = metrics.LazyLoadGauge("engine_active_locks_gauge")
)

func countOp(op string, err error) {
	status := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		status = "revert"
	default:
		status = "error"
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "status": status})
}
