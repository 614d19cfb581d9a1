// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "time"

// Clock returns the time of a new block from the time of its parent.
// The returned time is never below the parent's.
type Clock func(parent uint64) uint64

// FixedClock advances the time by interval seconds per block.
func FixedClock(interval uint64) Clock {
	return func(parent uint64) uint64 {
		return parent + interval
	}
}

// WallClock uses the current unix time, and stays on the parent time if the
// wall clock goes backwards.
func WallClock() Clock {
	return func(parent uint64) uint64 {
		now := uint64(time.Now().Unix())
		if now < parent {
			return parent
		}
		return now
	}
}
