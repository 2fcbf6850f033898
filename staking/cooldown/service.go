// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cooldown

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

const timesBucket = kv.Bucket("cooldown-times")

// Times are the per-user stake/withdraw timestamps, unix seconds.
type Times struct {
	LastStake    uint64
	LastWithdraw uint64
}

// Service enforces the minimum dwell time between staking and withdrawal.
type Service struct {
	times kv.Getter
}

func New(get kv.Getter) *Service {
	return &Service{times: timesBucket.ProxyGetter(get)}
}

// Times returns user's timestamps, zero-valued if user never staked.
func (s *Service) Times(user soul.Address) (*Times, error) {
	data, err := s.times.Get(user.Bytes())
	if err != nil {
		if s.times.IsNotFound(err) {
			return &Times{}, nil
		}
		return nil, errors.Wrap(err, "failed to get cooldown times")
	}
	var t Times
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, errors.Wrap(err, "failed to decode cooldown times")
	}
	return &t, nil
}

// RecordStake notes that user staked at now. Every stake restarts the cooldown.
func (s *Service) RecordStake(p kv.Putter, user soul.Address, now uint64) error {
	t, err := s.Times(user)
	if err != nil {
		return err
	}
	t.LastStake = now
	return s.save(p, user, t)
}

// RecordWithdraw notes that user withdrew at now.
func (s *Service) RecordWithdraw(p kv.Putter, user soul.Address, now uint64) error {
	t, err := s.Times(user)
	if err != nil {
		return err
	}
	t.LastWithdraw = now
	return s.save(p, user, t)
}

// CheckWithdrawable fails while the cooldown since the last stake has not elapsed.
func (s *Service) CheckWithdrawable(user soul.Address, now, minLockDuration uint64) error {
	t, err := s.Times(user)
	if err != nil {
		return err
	}
	if now < t.LastStake+minLockDuration {
		return reverts.ErrTooEarlyToWithdraw
	}
	return nil
}

func (s *Service) save(p kv.Putter, user soul.Address, t *Times) error {
	data, err := rlp.EncodeToBytes(t)
	if err != nil {
		return errors.Wrap(err, "failed to encode cooldown times")
	}
	if err := timesBucket.ProxyPutter(p).Put(user.Bytes(), data); err != nil {
		return errors.Wrap(err, "failed to save cooldown times")
	}
	return nil
}
