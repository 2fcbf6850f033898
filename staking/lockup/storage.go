// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockup

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/kv"
	"github.com/soulstake/soulstake/soul"
)

const (
	activeBucket   = kv.Bucket("lockup-active")
	archiveBucket  = kv.Bucket("lockup-archive")
	countersBucket = kv.Bucket("lockup-counters")
)

type Storage struct {
	active   kv.Getter
	archive  kv.Getter
	counters kv.Getter
}

func NewStorage(get kv.Getter) *Storage {
	return &Storage{
		active:   activeBucket.ProxyGetter(get),
		archive:  archiveBucket.ProxyGetter(get),
		counters: countersBucket.ProxyGetter(get),
	}
}

func (s *Storage) getActive(token soul.TokenRef) (*Lock, error) {
	data, err := s.active.Get(token.Key())
	if err != nil {
		if s.active.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get lock")
	}
	var lock Lock
	if err := rlp.DecodeBytes(data, &lock); err != nil {
		return nil, errors.Wrap(err, "failed to decode lock")
	}
	return &lock, nil
}

func (s *Storage) putActive(p kv.Putter, token soul.TokenRef, lock *Lock) error {
	data, err := rlp.EncodeToBytes(lock)
	if err != nil {
		return errors.Wrap(err, "failed to encode lock")
	}
	if err := activeBucket.ProxyPutter(p).Put(token.Key(), data); err != nil {
		return errors.Wrap(err, "failed to save lock")
	}
	return nil
}

func (s *Storage) deleteActive(p kv.Putter, token soul.TokenRef) error {
	return activeBucket.ProxyPutter(p).Delete(token.Key())
}

func (s *Storage) nextSeq(token soul.TokenRef) (uint64, error) {
	data, err := s.counters.Get(token.Key())
	if err != nil {
		if s.counters.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get lock counter")
	}
	return binary.BigEndian.Uint64(data), nil
}

func (s *Storage) setSeq(p kv.Putter, token soul.TokenRef, seq uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return countersBucket.ProxyPutter(p).Put(token.Key(), b[:])
}

func (s *Storage) putArchived(p kv.Putter, token soul.TokenRef, seq uint64, lock *Lock) error {
	data, err := rlp.EncodeToBytes(lock)
	if err != nil {
		return errors.Wrap(err, "failed to encode lock")
	}
	key := make([]byte, 0, len(token.Key())+8)
	key = append(key, token.Key()...)
	key = binary.BigEndian.AppendUint64(key, seq)
	if err := archiveBucket.ProxyPutter(p).Put(key, data); err != nil {
		return errors.Wrap(err, "failed to archive lock")
	}
	return nil
}

func (s *Storage) listArchived(token soul.TokenRef) ([]*Lock, error) {
	from := token.Key()
	to := prefixEnd(from)

	iter := s.archive.NewIterator(kv.Range{From: from, To: to})
	defer iter.Release()

	var locks []*Lock
	for iter.Next() {
		var lock Lock
		if err := rlp.DecodeBytes(iter.Value(), &lock); err != nil {
			return nil, errors.Wrap(err, "failed to decode archived lock")
		}
		locks = append(locks, &lock)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate archived locks")
	}
	return locks, nil
}

// prefixEnd returns the smallest key greater than every key with the given prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff; nil means no upper bound
}
