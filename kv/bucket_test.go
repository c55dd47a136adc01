// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

func TestBucket_GetPut(t *testing.T) {
	m := mem{}
	b := Bucket("c/")

	assert.NoError(t, b.Put(m, []byte("k1"), []byte("v1")))
	assert.Equal(t, "v1", m["c/k1"])

	v, err := b.Get(m, []byte("k1"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	has, err := b.Has(m, []byte("k1"))
	assert.NoError(t, err)
	assert.True(t, has)

	_, err = Bucket("p/").Get(m, []byte("k1"))
	assert.True(t, m.IsNotFound(err))

	assert.NoError(t, b.Delete(m, []byte("k1")))
	has, err = b.Has(m, []byte("k1"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestBucket_Range(t *testing.T) {
	r := Bucket("p/").Range([]byte("ab"))
	assert.Equal(t, []byte("p/ab"), r.Start)
	assert.Equal(t, []byte("p/ac"), r.Limit)
}
