// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
)

var (
	// CollectionsAddress owns the storage of item ownership.
	CollectionsAddress = common.BytesToAddress([]byte("collections"))

	slotOwners = storage.NameToSlot("owners")
)

// Collections records the owner of every non-fungible item.
type Collections struct {
	owners *storage.Mapping[storage.BytesKey, common.Address]
}

func NewCollections(st *state.State) *Collections {
	return &Collections{
		owners: storage.NewMapping[storage.BytesKey, common.Address](storage.NewContext(CollectionsAddress, st), slotOwners),
	}
}

func itemKey(collection common.Address, id string) storage.BytesKey {
	return append(collection.Bytes(), id...)
}

// OwnerOf returns the owner of the item. The second value is false if the item does not exist.
func (c *Collections) OwnerOf(collection common.Address, id string) (common.Address, bool, error) {
	owner, err := c.owners.Get(itemKey(collection, id))
	if err != nil {
		return common.Address{}, false, err
	}
	return owner, !owner.IsZero(), nil
}

// Transfer moves an item, requiring it to be owned by from.
func (c *Collections) Transfer(collection common.Address, id string, from, to common.Address) error {
	owner, found, err := c.OwnerOf(collection, id)
	if err != nil {
		return err
	}
	if !found {
		return reverts.External("item %s/%s not found", collection, id)
	}
	if owner != from {
		return reverts.External("item %s/%s not owned by %s", collection, id, from)
	}
	if to.IsZero() {
		return reverts.Validation("transfer to zero address")
	}
	return c.owners.Set(itemKey(collection, id), to)
}

// Mint creates a new item owned by to.
func (c *Collections) Mint(collection common.Address, id string, to common.Address) error {
	if id == "" {
		return reverts.Validation("empty token id")
	}
	if to.IsZero() {
		return reverts.Validation("mint to zero address")
	}
	_, found, err := c.OwnerOf(collection, id)
	if err != nil {
		return err
	}
	if found {
		return reverts.Validation("item %s/%s already minted", collection, id)
	}
	return c.owners.Set(itemKey(collection, id), to)
}
