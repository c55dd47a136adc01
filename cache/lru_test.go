// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU(t *testing.T) {
	_, err := NewLRU[string, int](0)
	assert.Error(t, err)

	c, err := NewLRU[string, int](2)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok, "evicted")
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	c.Remove("c")
	_, ok = c.Get("c")
	assert.False(t, ok)

	_, hit, miss := c.Stats().Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(2), miss)
}

func TestLRU_GetOrLoad(t *testing.T) {
	c, err := NewLRU[string, int](4)
	require.NoError(t, err)

	loads := 0
	load := func(k string) (int, error) {
		loads++
		if k == "bad" {
			return 0, errors.New("not found")
		}
		return len(k), nil
	}

	v, err := c.GetOrLoad("four", load)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	v, err = c.GetOrLoad("four", load)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, 1, loads)

	_, err = c.GetOrLoad("bad", load)
	assert.Error(t, err)
	_, err = c.GetOrLoad("bad", load)
	assert.Error(t, err)
	assert.Equal(t, 3, loads, "failures are not cached")
}
