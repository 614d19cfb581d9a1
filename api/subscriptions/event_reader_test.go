// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/test/datagen"
	"github.com/vechain/stakevault/xenv"
)

func insertBlock(t *testing.T, db *eventdb.EventDB, height uint64, n int) {
	events := make([]*xenv.Event, 0, n)
	for i := range n {
		ev := xenv.NewEvent("stake").Add("i", i)
		ev.Contract = datagen.RandAddress()
		events = append(events, ev)
	}
	require.NoError(t, db.Insert(height, height*10, events))
}

func TestEventReader(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	insertBlock(t, db, 1, 2)
	insertBlock(t, db, 2, 2)
	insertBlock(t, db, 3, 1)

	reader := newEventReader(db, 1, nil, 3)

	// a full page ends in the middle of block 2
	events, err := reader.Read(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(1), events[0].Height)
	assert.Equal(t, uint64(2), events[2].Height)
	assert.Equal(t, uint32(0), events[2].Index)

	// the rest of block 2 is followed by the complete block 3
	events, err = reader.Read(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[0].Height)
	assert.Equal(t, uint32(1), events[0].Index)
	assert.Equal(t, uint64(3), events[1].Height)

	events, err = reader.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	insertBlock(t, db, 4, 1)
	events, err = reader.Read(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(4), events[0].Height)
}

func TestEventReaderOversizedBlock(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	insertBlock(t, db, 5, 4)
	insertBlock(t, db, 6, 1)

	// a block larger than the limit is delivered over several reads
	reader := newEventReader(db, 0, nil, 3)
	var all []*eventdb.Event
	for {
		events, err := reader.Read(ctx)
		require.NoError(t, err)
		if len(events) == 0 {
			break
		}
		assert.LessOrEqual(t, len(events), 3)
		all = append(all, events...)
	}

	require.Len(t, all, 5)
	for i, ev := range all[:4] {
		assert.Equal(t, uint64(5), ev.Height)
		assert.Equal(t, uint32(i), ev.Index)
	}
	assert.Equal(t, uint64(6), all[4].Height)
}
