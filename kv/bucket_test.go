// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/lvldb"
)

func newStore(t *testing.T) kv.Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBucketGetPut(t *testing.T) {
	db := newStore(t)

	a := kv.Bucket("a").NewStore(db)
	b := kv.Bucket("b").NewStore(db)

	require.NoError(t, a.Put([]byte("k"), []byte("va")))
	require.NoError(t, b.Put([]byte("k"), []byte("vb")))

	v, err := a.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "va", string(v))

	v, err = db.Get([]byte("bk"))
	require.NoError(t, err)
	assert.Equal(t, "vb", string(v))

	has, err := a.Has([]byte("x"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, a.Delete([]byte("k")))
	_, err = a.Get([]byte("k"))
	assert.True(t, a.IsNotFound(err))
}

func TestBucketIterate(t *testing.T) {
	db := newStore(t)
	require.NoError(t, db.Put([]byte("a1"), []byte("x")))
	require.NoError(t, db.Put([]byte("b1"), []byte("1")))
	require.NoError(t, db.Put([]byte("b2"), []byte("2")))
	require.NoError(t, db.Put([]byte("b3"), []byte("3")))
	require.NoError(t, db.Put([]byte("c1"), []byte("y")))

	b := kv.Bucket("b").NewStore(db)

	var keys []string
	it := b.Iterate(kv.Range{})
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"1", "2", "3"}, keys)

	keys = keys[:0]
	it = b.Iterate(kv.Range{Start: []byte("2")})
	for ok := it.Last(); ok; ok = it.Prev() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"3", "2"}, keys)
}

func TestBucketBulkAndSnapshot(t *testing.T) {
	db := newStore(t)
	b := kv.Bucket("s").NewStore(db)

	snap := b.Snapshot()
	defer snap.Release()

	bulk := b.Bulk()
	require.NoError(t, bulk.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, bulk.Put([]byte("k2"), []byte("v2")))

	_, err := b.Get([]byte("k1"))
	assert.True(t, b.IsNotFound(err), "bulk is not written yet")

	require.NoError(t, bulk.Write())
	v, err := b.Get([]byte("k2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(v))

	_, err = snap.Get([]byte("k1"))
	assert.True(t, snap.IsNotFound(err), "snapshot predates the write")
}

func TestPrefixRange(t *testing.T) {
	r := kv.PrefixRange([]byte{0x01, 0xff})
	assert.Equal(t, []byte{0x01, 0xff}, r.Start)
	assert.Equal(t, []byte{0x02}, r.Limit)
}
