// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/cache"
	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/lvldb"
)

func newDB(t *testing.T) *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func collect(t *testing.T, st *State, r kv.Range, reverse bool) (keys []string) {
	err := st.Iterate(r, reverse, func(k, v []byte) (bool, error) {
		keys = append(keys, string(k)+"="+string(v))
		return true, nil
	})
	require.NoError(t, err)
	return
}

func TestStateGetSet(t *testing.T) {
	db := newDB(t)
	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))

	st := New(db, nil)

	v, err := st.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = st.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	st.Set([]byte("k2"), []byte("v2"))
	has, err := st.Has([]byte("k2"))
	require.NoError(t, err)
	assert.True(t, has)

	st.Delete([]byte("k1"))
	has, err = st.Has([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, has)

	st.Set([]byte("k2"), nil)
	has, err = st.Has([]byte("k2"))
	require.NoError(t, err)
	assert.False(t, has, "empty value deletes")
}

func TestStateCheckpoint(t *testing.T) {
	st := New(newDB(t), nil)

	st.Set([]byte("a"), []byte("1"))
	cp := st.NewCheckpoint()
	st.Set([]byte("a"), []byte("2"))
	st.Set([]byte("b"), []byte("2"))

	inner := st.NewCheckpoint()
	st.Delete([]byte("a"))
	st.RevertTo(inner)

	v, _ := st.Get([]byte("a"))
	assert.Equal(t, []byte("2"), v)

	st.RevertTo(cp)
	v, _ = st.Get([]byte("a"))
	assert.Equal(t, []byte("1"), v)
	v, _ = st.Get([]byte("b"))
	assert.Nil(t, v)

	assert.Equal(t, map[string][]byte{"a": []byte("1")}, st.Changes())
}

func TestStateIterateMerged(t *testing.T) {
	db := newDB(t)
	for _, k := range []string{"p1", "p3", "p5", "q1"} {
		require.NoError(t, db.Put([]byte(k), []byte("db")))
	}

	st := New(db, nil)
	st.Set([]byte("p2"), []byte("st"))
	st.Set([]byte("p3"), []byte("st"))
	st.Delete([]byte("p5"))
	st.Set([]byte("p6"), []byte("st"))
	st.Set([]byte("o1"), []byte("st"))

	r := kv.PrefixRange([]byte("p"))
	assert.Equal(t, []string{"p1=db", "p2=st", "p3=st", "p6=st"}, collect(t, st, r, false))
	assert.Equal(t, []string{"p6=st", "p3=st", "p2=st", "p1=db"}, collect(t, st, r, true))

	// bounded start
	assert.Equal(t, []string{"p3=st", "p6=st"}, collect(t, st, kv.Range{Start: []byte("p3"), Limit: []byte("q")}, false))

	// early stop
	var n int
	require.NoError(t, st.Iterate(r, false, func(k, v []byte) (bool, error) {
		n++
		return n < 2, nil
	}))
	assert.Equal(t, 2, n)

	// callback error is returned
	boom := errors.New("boom")
	err := st.Iterate(r, false, func(k, v []byte) (bool, error) { return false, boom })
	assert.Equal(t, boom, err)
}

func TestStateCommit(t *testing.T) {
	db := newDB(t)
	require.NoError(t, db.Put([]byte("gone"), []byte("x")))

	c, err := cache.NewLRU[string, []byte](16)
	require.NoError(t, err)

	st := New(db, c)
	st.Set([]byte("k"), []byte("v"))
	st.Delete([]byte("gone"))

	n, err := st.Commit(db.Bulk())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = db.Get([]byte("gone"))
	assert.True(t, db.IsNotFound(err))

	cached, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), cached)

	// next state reads through the cache
	st = New(db, c)
	v, err = st.Get([]byte("gone"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
