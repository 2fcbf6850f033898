// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

// Service is the authoritative store of stake accounts. It knows nothing
// about tokens, tasks or time; owner gating happens one level up.
type Service struct {
	storage *Storage

	// fallback multiplier when neither the account nor the global slot has one
	defaultMulBps uint32
}

func New(get kv.Getter, defaultMultiplierBps uint32) *Service {
	return &Service{
		storage:       NewStorage(get),
		defaultMulBps: defaultMultiplierBps,
	}
}

// Account returns the account record for user, zero-valued if never used.
func (s *Service) Account(user soul.Address) (*Account, error) {
	return s.storage.getAccount(user)
}

// MultiplierBps resolves the effective score multiplier for user:
// account value, then global slot, then the configured default.
func (s *Service) MultiplierBps(user soul.Address) (uint32, error) {
	acc, err := s.storage.getAccount(user)
	if err != nil {
		return 0, err
	}
	if acc.MultiplierBps != 0 {
		return acc.MultiplierBps, nil
	}
	global, err := s.storage.getSlot(slotDefaultMulBps)
	if err != nil {
		return 0, err
	}
	if global.Sign() != 0 {
		return uint32(global.Uint64()), nil
	}
	return s.defaultMulBps, nil
}

// Credit increases user's staked balance and returns the new balance.
func (s *Service) Credit(p kv.Putter, user soul.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.ErrInvalidAmount
	}
	acc, err := s.storage.getAccount(user)
	if err != nil {
		return nil, err
	}
	if acc.Blacklisted {
		return nil, reverts.ErrUserBlacklisted
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := s.storage.saveAccount(p, user, acc); err != nil {
		return nil, err
	}
	if err := s.storage.addToSlot(p, slotTotalStaked, amount); err != nil {
		return nil, err
	}
	return acc.Balance, nil
}

// Debit decreases user's staked balance and returns the new balance.
func (s *Service) Debit(p kv.Putter, user soul.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.ErrInvalidAmount
	}
	acc, err := s.storage.getAccount(user)
	if err != nil {
		return nil, err
	}
	if acc.Blacklisted {
		return nil, reverts.ErrUserBlacklisted
	}
	if acc.Balance.Sign() == 0 {
		return nil, reverts.ErrNoStakeToWithdraw
	}
	if acc.Balance.Cmp(amount) < 0 {
		return nil, reverts.ErrInsufficientBalance
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	if err := s.storage.saveAccount(p, user, acc); err != nil {
		return nil, err
	}
	if err := s.storage.addToSlot(p, slotTotalWithdrawn, amount); err != nil {
		return nil, err
	}
	return acc.Balance, nil
}

// ApplyResolution applies a task outcome to user's account in a single
// read-modify-write: the signed score delta (floored at zero) plus an
// optional slash of slashBps of the staked balance. It intentionally skips
// the blacklist gate: resolutions are resolver-driven and must land even if
// the owner was blacklisted while the lock was active.
// It returns the new score and the slashed amount.
func (s *Service) ApplyResolution(p kv.Putter, user soul.Address, scoreDelta *big.Int, slashBps uint32) (*big.Int, *big.Int, error) {
	acc, err := s.storage.getAccount(user)
	if err != nil {
		return nil, nil, err
	}

	oldScore := acc.Score
	newScore := new(big.Int).Add(oldScore, scoreDelta)
	if newScore.Sign() < 0 {
		newScore = new(big.Int) // floor at zero, never underflow
	}
	acc.Score = newScore

	slashed := new(big.Int)
	if slashBps > 0 && acc.Balance.Sign() > 0 {
		slashed.Mul(acc.Balance, new(big.Int).SetUint64(uint64(slashBps)))
		slashed.Quo(slashed, big.NewInt(10000))
		acc.Balance = new(big.Int).Sub(acc.Balance, slashed)
	}

	if err := s.storage.saveAccount(p, user, acc); err != nil {
		return nil, nil, err
	}
	if err := s.storage.addToSlot(p, slotTotalScore, new(big.Int).Sub(newScore, oldScore)); err != nil {
		return nil, nil, err
	}
	if slashed.Sign() > 0 {
		if err := s.storage.addToSlot(p, slotTotalSlashed, slashed); err != nil {
			return nil, nil, err
		}
	}
	return newScore, slashed, nil
}

// SetBlacklisted flips user's blacklist flag. Un-blacklisting must always be
// possible, so the blacklist gate does not apply here.
func (s *Service) SetBlacklisted(p kv.Putter, user soul.Address, flag bool) error {
	acc, err := s.storage.getAccount(user)
	if err != nil {
		return err
	}
	if !flag && !acc.Blacklisted {
		return reverts.ErrUserNotBlacklisted
	}
	acc.Blacklisted = flag
	return s.storage.saveAccount(p, user, acc)
}

// SetMultiplierBps sets user's score multiplier. The zero address sets the
// global default.
func (s *Service) SetMultiplierBps(p kv.Putter, user soul.Address, bps uint32) error {
	if bps == 0 || bps > MaxMultiplierBps {
		return reverts.ErrInvalidMultiplier
	}
	if user.IsZero() {
		return s.storage.setSlot(p, slotDefaultMulBps, new(big.Int).SetUint64(uint64(bps)))
	}
	acc, err := s.storage.getAccount(user)
	if err != nil {
		return err
	}
	if acc.Blacklisted {
		return reverts.ErrUserBlacklisted
	}
	acc.MultiplierBps = bps
	return s.storage.saveAccount(p, user, acc)
}

// Totals returns the global counters.
func (s *Service) Totals() (*Totals, error) {
	staked, err := s.storage.getSlot(slotTotalStaked)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.storage.getSlot(slotTotalWithdrawn)
	if err != nil {
		return nil, err
	}
	slashed, err := s.storage.getSlot(slotTotalSlashed)
	if err != nil {
		return nil, err
	}
	score, err := s.storage.getSlot(slotTotalScore)
	if err != nil {
		return nil, err
	}
	return &Totals{
		Staked:    staked,
		Withdrawn: withdrawn,
		Slashed:   slashed,
		Score:     score,
	}, nil
}
