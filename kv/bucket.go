// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides logical bucket for kv store.
type Bucket string

// Key returns the full key of k inside the bucket.
func (b Bucket) Key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// Get reads k from the bucket.
func (b Bucket) Get(src Getter, k []byte) ([]byte, error) {
	return src.Get(b.Key(k))
}

// Has reports whether k exists in the bucket.
func (b Bucket) Has(src Getter, k []byte) (bool, error) {
	return src.Has(b.Key(k))
}

// Put writes k into the bucket.
func (b Bucket) Put(dst Putter, k, v []byte) error {
	return dst.Put(b.Key(k), v)
}

// Delete removes k from the bucket.
func (b Bucket) Delete(dst Putter, k []byte) error {
	return dst.Delete(b.Key(k))
}

// Range returns the key range covering keys in the bucket starting with prefix.
func (b Bucket) Range(prefix []byte) Range {
	r := util.BytesPrefix(b.Key(prefix))
	return Range{Start: r.Start, Limit: r.Limit}
}

// Iterate iterates the bucket's keys starting with prefix. Returned keys have the bucket stripped.
func (b Bucket) Iterate(src Store, prefix []byte) Iterator {
	return &bucketIter{src.Iterate(b.Range(prefix)), len(b)}
}

type bucketIter struct {
	Iterator
	n int
}

func (i *bucketIter) Key() []byte {
	return i.Iterator.Key()[i.n:]
}
