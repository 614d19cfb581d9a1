// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"math"

	"github.com/vechain/stakevault/eventdb"
)

// eventReader pages through stored events in insertion order, starting from a height.
// A block's events are inserted at once and never appended to later, so the cursor
// (height of the last delivered block, events already delivered from it) identifies
// the next event to send even when a block is split across reads.
type eventReader struct {
	db       *eventdb.EventDB
	criteria []*eventdb.Criteria
	pos      uint64
	skip     uint64
	limit    uint64
}

func newEventReader(db *eventdb.EventDB, pos uint64, criteria []*eventdb.Criteria, limit uint64) *eventReader {
	return &eventReader{
		db:       db,
		criteria: criteria,
		pos:      pos,
		limit:    limit,
	}
}

// Read returns the next events, at most limit of them.
func (r *eventReader) Read(ctx context.Context) ([]*eventdb.Event, error) {
	events, err := r.db.FilterEvents(ctx, &eventdb.Filter{
		CriteriaSet: r.criteria,
		Range: &eventdb.Range{
			Unit: eventdb.Block,
			From: r.pos,
			To:   math.MaxInt64,
		},
		Order:   eventdb.ASC,
		Options: &eventdb.Options{Offset: r.skip, Limit: r.limit},
	})
	if err != nil || len(events) == 0 {
		return nil, err
	}

	last := events[len(events)-1].Height
	if last != r.pos {
		r.pos, r.skip = last, 0
	}
	for i := len(events) - 1; i >= 0 && events[i].Height == last; i-- {
		r.skip++
	}
	return events, nil
}
