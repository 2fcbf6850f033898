// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/soul"
)

const (
	accountsBucket = kv.Bucket("ledger-accounts")
	slotsBucket    = kv.Bucket("ledger-slots")
)

var (
	slotTotalStaked    = []byte("total-staked")
	slotTotalWithdrawn = []byte("total-withdrawn")
	slotTotalSlashed   = []byte("total-slashed")
	slotTotalScore     = []byte("total-score")
	slotDefaultMulBps  = []byte("default-multiplier-bps")
)

// Storage persists accounts and global counters. Reads go to the backing
// store; writes are staged on the putter supplied per call.
type Storage struct {
	accounts kv.Getter
	slots    kv.Getter
}

func NewStorage(get kv.Getter) *Storage {
	return &Storage{
		accounts: accountsBucket.ProxyGetter(get),
		slots:    slotsBucket.ProxyGetter(get),
	}
}

func (s *Storage) getAccount(user soul.Address) (*Account, error) {
	data, err := s.accounts.Get(user.Bytes())
	if err != nil {
		if s.accounts.IsNotFound(err) {
			return newAccount(), nil
		}
		return nil, errors.Wrap(err, "failed to get account")
	}
	var acc Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return nil, errors.Wrap(err, "failed to decode account")
	}
	return &acc, nil
}

func (s *Storage) saveAccount(p kv.Putter, user soul.Address, acc *Account) error {
	data, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return errors.Wrap(err, "failed to encode account")
	}
	if err := accountsBucket.ProxyPutter(p).Put(user.Bytes(), data); err != nil {
		return errors.Wrap(err, "failed to save account")
	}
	return nil
}

func (s *Storage) getSlot(slot []byte) (*big.Int, error) {
	data, err := s.slots.Get(slot)
	if err != nil {
		if s.slots.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrapf(err, "failed to get slot %s", slot)
	}
	return new(big.Int).SetBytes(data), nil
}

func (s *Storage) setSlot(p kv.Putter, slot []byte, val *big.Int) error {
	return slotsBucket.ProxyPutter(p).Put(slot, val.Bytes())
}

func (s *Storage) addToSlot(p kv.Putter, slot []byte, delta *big.Int) error {
	cur, err := s.getSlot(slot)
	if err != nil {
		return err
	}
	return s.setSlot(p, slot, cur.Add(cur, delta))
}
