// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/vechain/stakevault/cache"
	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Cache caches committed values. A nil value marks an absent key.
type Cache = cache.LRU[string, []byte]

// NewCache creates a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	return cache.NewLRU[string, []byte](size)
}

// State is a journaled view over a kv reader.
// All writes are kept in memory until Commit.
type State struct {
	src   kv.Reader
	cache *Cache
	sm    *stackedmap.StackedMap[string, []byte]
}

// New create state object. cache is optional, and must only be shared by states
// reading the latest committed data.
func New(src kv.Reader, cache *Cache) *State {
	s := &State{src: src, cache: cache}
	s.sm = stackedmap.New(s.load)
	return s
}

func (s *State) load(key string) ([]byte, bool, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v, true, nil
		}
	}
	v, err := s.src.Get([]byte(key))
	if err != nil {
		if !s.src.IsNotFound(err) {
			return nil, false, err
		}
		v = nil
	}
	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, true, nil
}

// Get returns value of the key, or nil if absent.
func (s *State) Get(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(string(key))
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// Has returns whether the key has a value.
func (s *State) Has(key []byte) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return len(v) > 0, nil
}

// Set sets value of the key. An empty value deletes the key.
func (s *State) Set(key, value []byte) {
	if len(value) == 0 {
		value = nil
	} else {
		value = bytes.Clone(value)
	}
	s.sm.Put(string(key), value)
}

// Delete deletes the key.
func (s *State) Delete(key []byte) {
	s.sm.Put(string(key), nil)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Iterate traverses keys in range r in ascending order, or descending if reverse is set.
// Uncommitted writes are merged with the underlying data. The traversal stops
// when fn returns false or an error.
func (s *State) Iterate(r kv.Range, reverse bool, fn func(key, value []byte) (bool, error)) error {
	inRange := func(k []byte) bool {
		return bytes.Compare(k, r.Start) >= 0 && (len(r.Limit) == 0 || bytes.Compare(k, r.Limit) < 0)
	}
	before := func(a, b []byte) bool {
		if reverse {
			return bytes.Compare(a, b) > 0
		}
		return bytes.Compare(a, b) < 0
	}

	type entry struct {
		key, value []byte
	}
	var dirty []entry
	s.sm.Each(func(k string, v []byte) bool {
		if key := []byte(k); inRange(key) {
			dirty = append(dirty, entry{key, v})
		}
		return true
	})
	sort.Slice(dirty, func(i, j int) bool { return before(dirty[i].key, dirty[j].key) })

	it := s.src.Iterate(r)
	defer it.Release()

	step, ok := it.Next, it.First()
	if reverse {
		step, ok = it.Prev, it.Last()
	}

	emit := func(e entry) (bool, error) {
		if e.value == nil {
			return true, nil
		}
		return fn(e.key, e.value)
	}

	for ok || len(dirty) > 0 {
		var next entry
		switch {
		case !ok:
			next, dirty = dirty[0], dirty[1:]
		case len(dirty) == 0 || before(it.Key(), dirty[0].key):
			next = entry{bytes.Clone(it.Key()), bytes.Clone(it.Value())}
			ok = step()
		case bytes.Equal(it.Key(), dirty[0].key):
			// overridden by uncommitted write
			next, dirty = dirty[0], dirty[1:]
			ok = step()
		default:
			next, dirty = dirty[0], dirty[1:]
		}
		cont, err := emit(next)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	if err := it.Error(); err != nil {
		return &Error{err}
	}
	return nil
}

// Changes returns the final value of every written key. A nil value means deleted.
func (s *State) Changes() map[string][]byte {
	changes := make(map[string][]byte)
	s.sm.Each(func(k string, v []byte) bool {
		changes[k] = v
		return true
	})
	return changes
}

// Commit writes all changes into the bulk and flushes it in one write.
// The state should not be used after commit.
func (s *State) Commit(bulk kv.Bulk) (int, error) {
	changes := s.Changes()
	for k, v := range changes {
		var err error
		if v == nil {
			err = bulk.Delete([]byte(k))
		} else {
			err = bulk.Put([]byte(k), v)
		}
		if err != nil {
			return 0, &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return 0, &Error{err}
	}
	if s.cache != nil {
		for k, v := range changes {
			s.cache.Add(k, v)
		}
	}
	metricStateWrites().AddWithLabel(int64(len(changes)), map[string]string{"type": "commit"})
	return len(changes), nil
}
