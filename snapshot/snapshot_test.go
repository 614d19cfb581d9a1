// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
)

func newStore(t *testing.T) *Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sctx := storage.NewContext(common.BytesToAddress([]byte("vault")), state.New(db, nil))
	return New(sctx, "total")
}

func query(t *testing.T, s *Store, height uint64) (int64, bool) {
	v, ok, err := s.Query(height)
	require.NoError(t, err)
	if !ok {
		return 0, false
	}
	return v.Int64(), true
}

func TestQueryEmpty(t *testing.T) {
	s := newStore(t)
	_, ok := query(t, s, 10)
	assert.False(t, ok)

	_, _, ok, err := s.Latest()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordAndQuery(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Record(5, big.NewInt(0)))
	require.NoError(t, s.Record(8, big.NewInt(10)))
	require.NoError(t, s.Record(12, big.NewInt(7)))

	cases := []struct {
		height uint64
		value  int64
		ok     bool
	}{
		{4, 0, false},
		{5, 0, true},
		{7, 0, true},
		{8, 10, true},
		{11, 10, true},
		{12, 7, true},
		{100, 7, true},
		{math.MaxUint64, 7, true},
	}
	for _, c := range cases {
		v, ok := query(t, s, c.height)
		assert.Equal(t, c.ok, ok, "height %d", c.height)
		assert.Equal(t, c.value, v, "height %d", c.height)
	}

	height, value, ok, err := s.Latest()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(12), height)
	assert.Equal(t, int64(7), value.Int64())
}

func TestRecordSameHeightOverwrites(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Record(3, big.NewInt(1)))
	require.NoError(t, s.Record(3, big.NewInt(2)))
	require.NoError(t, s.Record(4, big.NewInt(5)))

	v, _ := query(t, s, 3)
	assert.Equal(t, int64(2), v)
}

func TestRecordBeforeLatest(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Record(3, big.NewInt(1)))
	err := s.Record(2, big.NewInt(1))
	assert.True(t, reverts.IsRevertErr(err))
	assert.Equal(t, reverts.KindInternal, reverts.KindOf(err))
}
