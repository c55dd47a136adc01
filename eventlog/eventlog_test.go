// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/thor"
)

var (
	campaignA = thor.BytesToAddress([]byte("campaignA"))
	campaignB = thor.BytesToAddress([]byte("campaignB"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
)

func newEvents() []*Event {
	return []*Event{
		{Campaign: campaignA, Account: alice, Kind: KindCreate, Day: 1, Time: 100},
		{Campaign: campaignA, Account: alice, Kind: KindAddBudget, Day: 1, Amount: 1_000, Time: 101},
		{Campaign: campaignA, Account: bob, Kind: KindStake, Day: 2, Amount: 50, Time: 200},
		{Campaign: campaignA, Account: bob, Kind: KindBoost, Day: 3, Time: 300},
		{Campaign: campaignB, Account: bob, Kind: KindStake, Day: 3, Amount: math.MaxUint64, Time: 301},
		{Campaign: campaignA, Account: bob, Kind: KindClaim, Day: 5, Amount: 70, Time: 500},
	}
}

func TestEventLog(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	events := newEvents()
	require.NoError(t, db.Append(ctx, events...))
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}

	all, err := db.Filter(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, events, all)

	tests := []struct {
		name   string
		filter *Filter
		want   []*Event
	}{
		{"campaign", &Filter{Campaign: &campaignB}, events[4:5]},
		{"account", &Filter{Account: &alice}, events[:2]},
		{"kinds", &Filter{Kinds: []Kind{KindStake, KindClaim}}, []*Event{events[2], events[4], events[5]}},
		{"range", &Filter{Range: &Range{From: 2, To: 3}}, events[2:5]},
		{"open range", &Filter{Range: &Range{From: 3}}, events[3:]},
		{"desc", &Filter{Campaign: &campaignA, Order: DESC, Options: &Options{Offset: 1, Limit: 2}},
			[]*Event{events[3], events[2]}},
		{"combined", &Filter{Campaign: &campaignA, Account: &bob, Kinds: []Kind{KindBoost}}, events[3:4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Filter(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventLog_Persistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())

	require.NoError(t, db.Append(context.Background(), newEvents()[:2]...))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Filter(context.Background(), &Filter{Kinds: []Kind{KindAddBudget}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1_000), got[0].Amount)
}

func TestEventLog_Canceled(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.Append(ctx, newEvents()...))
}

func TestKind(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, Kind("mint").Valid())
}
