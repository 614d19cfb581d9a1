// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"math/big"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
)

var (
	// BankAddress owns the storage of fungible balances.
	BankAddress = common.BytesToAddress([]byte("bank"))

	slotBalances = storage.NameToSlot("balances")
)

// Bank keeps fungible balances per holder and asset.
type Bank struct {
	balances *storage.Mapping[storage.BytesKey, *big.Int]
}

func NewBank(st *state.State) *Bank {
	return &Bank{
		balances: storage.NewMapping[storage.BytesKey, *big.Int](storage.NewContext(BankAddress, st), slotBalances),
	}
}

func balanceKey(holder common.Address, asset Asset) storage.BytesKey {
	return append(holder.Bytes(), asset.ID()...)
}

func (b *Bank) Balance(holder common.Address, asset Asset) (*big.Int, error) {
	return b.balances.Get(balanceKey(holder, asset))
}

func (b *Bank) setBalance(holder common.Address, asset Asset, amount *big.Int) error {
	if amount.Sign() == 0 {
		b.balances.Delete(balanceKey(holder, asset))
		return nil
	}
	return b.balances.Set(balanceKey(holder, asset), amount)
}

// Transfer moves amount of asset between holders. A zero amount is a no-op.
func (b *Bank) Transfer(from, to common.Address, asset Asset, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Validation("negative transfer amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}

	fromBalance, err := b.Balance(from, asset)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return reverts.External("insufficient %s balance of %s: %s < %s", asset, from, fromBalance, amount)
	}
	toBalance, err := b.Balance(to, asset)
	if err != nil {
		return err
	}

	if err := b.setBalance(from, asset, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return b.setBalance(to, asset, toBalance.Add(toBalance, amount))
}

// Mint credits amount of asset to the holder.
func (b *Bank) Mint(to common.Address, asset Asset, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Validation("negative mint amount")
	}
	balance, err := b.Balance(to, asset)
	if err != nil {
		return err
	}
	return b.setBalance(to, asset, balance.Add(balance, amount))
}
