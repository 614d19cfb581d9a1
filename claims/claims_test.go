// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claims

import (
	"math/big"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
)

var (
	alice      = common.BytesToAddress([]byte("alice"))
	collection = common.BytesToAddress([]byte("collection"))
)

func newQueue(t *testing.T) *Queue {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(storage.NewContext(common.BytesToAddress([]byte("vault")), state.New(db, nil)))
}

func items(ids ...int) []Unit {
	units := make([]Unit, 0, len(ids))
	for _, id := range ids {
		units = append(units, Item(collection, strconv.Itoa(id)))
	}
	return units
}

func ids(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.TokenID)
	}
	return out
}

func ptr(v uint64) *uint64 { return &v }

func TestCreateAndQuery(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Create(alice, items(1, 2), 10))
	require.NoError(t, q.Create(alice, []Unit{Amount(big.NewInt(50))}, 20))
	assert.Error(t, q.Create(alice, nil, 20))

	records, err := q.Query(alice)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2), records[0].Size())
	assert.Equal(t, uint64(10), records[0].Release)
	// items come back exactly as stored, without an amount
	assert.Equal(t, items(1, 2), records[0].Payload)
	assert.Nil(t, records[0].Payload[0].Amount)
	assert.False(t, records[1].Payload[0].IsItem())
	assert.Equal(t, int64(50), records[1].Payload[0].Amount.Int64())

	// query does not mutate
	records, err = q.Query(alice)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMaxClaims(t *testing.T) {
	q := newQueue(t)
	for i := range MaxClaims {
		require.NoError(t, q.Create(alice, items(i), 0))
	}
	assert.ErrorIs(t, q.Create(alice, items(1000), 0), ErrMaxClaimsReached)
}

func TestReleaseMatured(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Create(alice, items(1), 10))
	require.NoError(t, q.Create(alice, items(2), 30))
	require.NoError(t, q.Create(alice, items(3), 20))

	released, err := q.Release(alice, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, released)

	released, err = q.Release(alice, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(released))

	records, err := q.Query(alice)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(30), records[0].Release)

	released, err = q.Release(alice, 30, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(released))

	records, err = q.Query(alice)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReleaseCapZero(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Create(alice, items(1), 0))
	require.NoError(t, q.Create(alice, items(2, 3), 0))

	released, err := q.Release(alice, 100, ptr(0))
	require.NoError(t, err)
	assert.Empty(t, released)

	records, err := q.Query(alice)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReleaseCapFirstFit(t *testing.T) {
	q := newQueue(t)
	require.NoError(t, q.Create(alice, items(1, 2, 3), 0))
	require.NoError(t, q.Create(alice, items(4), 0))
	require.NoError(t, q.Create(alice, items(5, 6), 0))
	require.NoError(t, q.Create(alice, items(7), 50))

	// the first record exceeds the cap, the second fits, the third no longer does
	released, err := q.Release(alice, 10, ptr(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(released))

	records, err := q.Query(alice)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"1", "2", "3"}, ids(records[0].Payload))
	assert.Equal(t, []string{"5", "6"}, ids(records[1].Payload))
	assert.Equal(t, []string{"7"}, ids(records[2].Payload))

	released, err = q.Release(alice, 10, ptr(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(released))
}
