// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testchain builds an in-memory runtime from the dev genesis for tests.
package testchain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/factory"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/vault"
)

const (
	VaultCodeID   = 2
	RewardsCodeID = 3
)

// Chain is a runtime over in-memory stores.
type Chain struct {
	db      *lvldb.LevelDB
	events  *eventdb.EventDB
	runtime *runtime.Runtime
}

// New creates a chain initialized with the dev genesis.
func New() (*Chain, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	events, err := eventdb.NewMem()
	if err != nil {
		db.Close()
		return nil, err
	}
	rt, err := runtime.New(db, events, runtime.Options{CacheSize: 1024})
	if err == nil {
		_, err = rt.Genesis(runtime.DevGenesis())
	}
	if err != nil {
		events.Close()
		db.Close()
		return nil, err
	}
	return &Chain{db: db, events: events, runtime: rt}, nil
}

func (c *Chain) Runtime() *runtime.Runtime { return c.runtime }
func (c *Chain) EventDB() *eventdb.EventDB { return c.events }

// Accounts returns the funded dev accounts. The first one administers the factory.
func (c *Chain) Accounts() []common.Address {
	return runtime.DevAccounts()
}

// Exec runs msg as a command of sender.
func (c *Chain) Exec(sender, contract common.Address, funds assets.Coins, msg any) (*runtime.Receipt, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return c.runtime.Execute(context.Background(), &runtime.Command{
		Sender:   sender,
		Contract: contract,
		Funds:    funds,
		Msg:      data,
	})
}

// CreateVault creates a vault through the factory, sent by the first dev account.
func (c *Chain) CreateVault(msg vault.InstantiateMsg) (common.Address, error) {
	receipt, err := c.Exec(c.Accounts()[0], runtime.FactoryAddress, nil, &factory.ExecuteMsg{
		CreateVault: &factory.CreateVaultMsg{InstantiateMsg: msg},
	})
	if err != nil {
		return common.Address{}, err
	}
	for _, ev := range receipt.Events {
		if ev.Type != "create-vault" {
			continue
		}
		if v, ok := ev.Attr("address"); ok {
			return common.ParseAddress(v)
		}
	}
	return common.Address{}, errors.New("no create-vault event")
}

// CreateRewardPool creates a pool funded with amount of the native denom, and returns its address.
func (c *Chain) CreateRewardPool(vaultAddr common.Address, denom string, amount int64, start, duration uint64) (common.Address, error) {
	receipt, err := c.Exec(c.Accounts()[0], vaultAddr, assets.Coins{{Denom: denom, Amount: big.NewInt(amount)}}, &vault.ExecuteMsg{
		CreateRewardPool: &vault.CreateRewardPoolMsg{
			Asset:       assets.Native(denom),
			PeriodStart: start,
			Duration:    duration,
		},
	})
	if err != nil {
		return common.Address{}, err
	}
	for _, ev := range receipt.Events {
		if ev.Type != "create-reward-account" {
			continue
		}
		if v, ok := ev.Attr("address"); ok {
			return common.ParseAddress(v)
		}
	}
	return common.Address{}, errors.New("no create-reward-account event")
}

func (c *Chain) Close() {
	c.events.Close()
	c.db.Close()
}
