// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides a logical key namespace on top of a kv store.
type Bucket string

// ProxyGetter creates a bucket getter from the source getter.
func (b Bucket) ProxyGetter(src Getter) Getter {
	return &bucketGetter{string(b), src}
}

// ProxyPutter creates a bucket putter from the source putter.
func (b Bucket) ProxyPutter(src Putter) Putter {
	return &bucketPutter{string(b), src}
}

type bucketGetter struct {
	prefix string
	src    Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(prefixed(g.prefix, key))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(prefixed(g.prefix, key))
}

func (g *bucketGetter) IsNotFound(err error) bool {
	return g.src.IsNotFound(err)
}

func (g *bucketGetter) NewIterator(r Range) Iterator {
	if len(r.From) == 0 && len(r.To) == 0 {
		pr := util.BytesPrefix([]byte(g.prefix))
		return &bucketIterator{len(g.prefix), g.src.NewIterator(Range{From: pr.Start, To: pr.Limit})}
	}
	to := prefixed(g.prefix, r.To)
	if len(r.To) == 0 {
		to = util.BytesPrefix([]byte(g.prefix)).Limit
	}
	return &bucketIterator{len(g.prefix), g.src.NewIterator(Range{
		From: prefixed(g.prefix, r.From),
		To:   to,
	})}
}

type bucketPutter struct {
	prefix string
	src    Putter
}

func (p *bucketPutter) Put(key, value []byte) error {
	return p.src.Put(prefixed(p.prefix, key), value)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(prefixed(p.prefix, key))
}

type bucketIterator struct {
	prefixLen int
	Iterator
}

// Key strips the bucket prefix.
func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[i.prefixLen:]
}

func prefixed(prefix string, key []byte) []byte {
	return append(append(make([]byte, 0, len(prefix)+len(key)), prefix...), key...)
}
