// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/xenv"
)

// Event is a contract event stored with the block it was emitted in.
type Event struct {
	Seq        uint64           `json:"seq"`
	Height     uint64           `json:"height"`
	Time       uint64           `json:"time"`
	Index      uint32           `json:"index"`
	Contract   common.Address   `json:"contract"`
	Type       string           `json:"type"`
	Attributes []xenv.Attribute `json:"attributes"`
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType `json:"unit"`
	From uint64    `json:"from"`
	To   uint64    `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Criteria matches events of a contract and/or of a type. Criteria of a filter are OR'ed.
type Criteria struct {
	Contract *common.Address `json:"contract"`
	Type     *string         `json:"type"`
}

type Filter struct {
	CriteriaSet []*Criteria `json:"criteriaSet"`
	Range       *Range      `json:"range"`
	Order       Order       `json:"order"` // default asc
	Options     *Options    `json:"options"`
}
