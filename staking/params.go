// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/soulstake/soulstake/staking/ledger"
)

// Params are the engine's policy knobs. They are fixed for the lifetime of
// an engine instance and loadable from a yaml file.
type Params struct {
	// minimum post-stake balance, zero disables the check
	MinStake uint64 `yaml:"minStake"`
	// seconds a user must wait after staking before withdrawing
	MinLockDuration uint64 `yaml:"minLockDuration"`
	// unscaled score delta applied per task resolution
	BaseDelta uint64 `yaml:"baseDelta"`
	// fallback score multiplier, basis points (10000 = 1x)
	DefaultMultiplierBps uint32 `yaml:"defaultMultiplierBps"`
	// fraction of the staked balance burned on failed resolution,
	// basis points; zero means failures are score-only
	SlashBps uint32 `yaml:"slashBps"`
}

// DefaultParams returns the stock policy: one day cooldown, 1x multiplier,
// no minimum stake, no slashing.
func DefaultParams() *Params {
	return &Params{
		MinStake:             0,
		MinLockDuration:      86400,
		BaseDelta:            10,
		DefaultMultiplierBps: 10000,
		SlashBps:             0,
	}
}

// LoadParams reads params from a yaml file, filling unset fields from the
// defaults.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read params file")
	}
	params := DefaultParams()
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, errors.Wrap(err, "failed to parse params file")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks the params are internally consistent.
func (p *Params) Validate() error {
	if p.DefaultMultiplierBps == 0 || p.DefaultMultiplierBps > ledger.MaxMultiplierBps {
		return errors.Errorf("defaultMultiplierBps out of range (0, %d]", ledger.MaxMultiplierBps)
	}
	if p.SlashBps > 10000 {
		return errors.New("slashBps exceeds 10000")
	}
	if p.BaseDelta == 0 {
		return errors.New("baseDelta must be positive")
	}
	return nil
}
