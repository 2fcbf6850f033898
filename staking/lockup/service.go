// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockup

import (
	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/reverts"
	"github.com/soulstake/soulstake/soul"
)

// Service enforces the one-active-lock-per-token invariant.
type Service struct {
	storage *Storage
}

func New(get kv.Getter) *Service {
	return &Service{storage: NewStorage(get)}
}

// Acquire creates a new active lock binding (token, task, owner).
func (s *Service) Acquire(p kv.Putter, token soul.TokenRef, taskID soul.Bytes32, owner soul.Address, now uint64) (*Lock, error) {
	existing, err := s.storage.getActive(token)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, reverts.ErrTokenAlreadyLocked
	}

	lock := &Lock{
		Token:     token,
		TaskID:    taskID,
		Owner:     owner,
		State:     StateLocked,
		CreatedAt: now,
	}
	if err := s.storage.putActive(p, token, lock); err != nil {
		return nil, err
	}
	return lock, nil
}

// Release resolves the active lock for token. The lock becomes a terminal
// archive record; it never transitions back to locked in place.
func (s *Service) Release(p kv.Putter, token soul.TokenRef, now uint64) (*Lock, error) {
	lock, err := s.storage.getActive(token)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, reverts.ErrLockNotFound
	}

	lock.State = StateResolved
	lock.ResolvedAt = now

	seq, err := s.storage.nextSeq(token)
	if err != nil {
		return nil, err
	}
	if err := s.storage.putArchived(p, token, seq, lock); err != nil {
		return nil, err
	}
	if err := s.storage.setSeq(p, token, seq+1); err != nil {
		return nil, err
	}
	if err := s.storage.deleteActive(p, token); err != nil {
		return nil, err
	}
	return lock, nil
}

// IsLocked reports whether token has an active lock.
func (s *Service) IsLocked(token soul.TokenRef) (bool, error) {
	lock, err := s.storage.getActive(token)
	if err != nil {
		return false, err
	}
	return lock != nil, nil
}

// Get returns the active lock for token, or nil.
func (s *Service) Get(token soul.TokenRef) (*Lock, error) {
	return s.storage.getActive(token)
}

// History returns the resolved locks of token, oldest first.
func (s *Service) History(token soul.TokenRef) ([]*Lock, error) {
	return s.storage.listArchived(token)
}
