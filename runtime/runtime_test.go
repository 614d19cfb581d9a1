// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/factory"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/test/datagen"
	"github.com/vechain/stakevault/vault"
	"github.com/vechain/stakevault/xenv"
)

type testRuntime struct {
	*Runtime
	t      *testing.T
	events *eventdb.EventDB
}

func newTestRuntime(t *testing.T) *testRuntime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	edb, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { edb.Close() })

	rt, err := New(db, edb, Options{CacheSize: 1024})
	require.NoError(t, err)
	_, err = rt.Genesis(DevGenesis())
	require.NoError(t, err)
	return &testRuntime{Runtime: rt, t: t, events: edb}
}

func (tr *testRuntime) exec(sender, contract common.Address, funds assets.Coins, msg any) (*Receipt, error) {
	data, err := json.Marshal(msg)
	require.NoError(tr.t, err)
	return tr.Execute(context.Background(), &Command{
		Sender:   sender,
		Contract: contract,
		Funds:    funds,
		Msg:      data,
	})
}

func (tr *testRuntime) balance(holder common.Address, asset assets.Asset) *big.Int {
	var balance *big.Int
	require.NoError(tr.t, tr.View(holder, func(env *xenv.Environment) (err error) {
		balance, err = env.Bank().Balance(holder, asset)
		return
	}))
	return balance
}

func (tr *testRuntime) storedEvents() []*eventdb.Event {
	events, err := tr.events.FilterEvents(context.Background(), nil)
	require.NoError(tr.t, err)
	return events
}

func (tr *testRuntime) createVault() common.Address {
	receipt, err := tr.exec(DevAccounts()[0], FactoryAddress, nil, &factory.ExecuteMsg{
		CreateVault: &factory.CreateVaultMsg{
			InstantiateMsg: vault.InstantiateMsg{
				Mode:           ledger.ModeBucketed,
				Collections:    []common.Address{DevCollection},
				RewardsCodeID:  3,
				UnstakingDelay: 100,
			},
		},
	})
	require.NoError(tr.t, err)

	addr := common.DeriveAddress(FactoryAddress, 2, common.IndexSalt(FactoryAddress, 0))
	var found bool
	for _, ev := range receipt.Events {
		if v, _ := ev.Attr("address"); ev.Type == "create-vault" && v == addr.String() {
			found = true
		}
	}
	require.True(tr.t, found, "create-vault event")
	return addr
}

func coins(denom string, amount int64) assets.Coins {
	return assets.Coins{{Denom: denom, Amount: big.NewInt(amount)}}
}

func TestGenesis(t *testing.T) {
	tr := newTestRuntime(t)

	head, err := tr.Head()
	require.NoError(t, err)
	assert.Equal(t, &Head{Number: 0, Time: 0}, head)

	initialized, err := tr.Initialized()
	require.NoError(t, err)
	assert.True(t, initialized)

	_, err = tr.Genesis(DevGenesis())
	assert.Error(t, err)

	for _, acc := range DevAccounts() {
		assert.Equal(t, "1000000000000000000000000", tr.balance(acc, assets.Native("stake")).String())
	}

	require.NoError(t, tr.View(FactoryAddress, func(env *xenv.Environment) error {
		cfg, err := factory.New(env).Config()
		require.NoError(t, err)
		assert.Equal(t, DevAccounts()[0], cfg.Admin)
		assert.Equal(t, uint64(2), cfg.VaultCodeID)

		owner, found, err := env.Collections().OwnerOf(DevCollection, "7")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, DevAccounts()[1], owner)
		return nil
	}))
}

func TestGenesisWithoutFactoryCode(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	rt, err := New(db, nil, Options{})
	require.NoError(t, err)

	gen := DevGenesis()
	gen.Codes = gen.Codes[1:]
	_, err = rt.Genesis(gen)
	assert.Error(t, err)

	initialized, err := rt.Initialized()
	require.NoError(t, err)
	assert.False(t, initialized)

	_, err = rt.Execute(context.Background(), &Command{Contract: FactoryAddress})
	assert.EqualError(t, err, "genesis not initialized")
}

func TestLoadGenesis(t *testing.T) {
	acc := datagen.RandAddress()
	col := datagen.RandAddress()
	content := `
time: 1700000000
codes:
  - id: 1
    kind: factory
  - id: 2
    kind: vault
  - id: 3
    kind: rewards
balances:
  - account: "` + acc.String() + `"
    asset: native:stake
    amount: "0x64"
items:
  - collection: "` + col.String() + `"
    id: "42"
    owner: "` + acc.String() + `"
factory:
  admin: "` + acc.String() + `"
  vaultCodeId: 2
`
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	gen, err := LoadGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), gen.Time)
	assert.Len(t, gen.Codes, 3)
	assert.Equal(t, xenv.CodeRewards, gen.Codes[2].Kind)
	assert.Equal(t, assets.Native("stake"), gen.Balances[0].Asset)
	assert.Equal(t, int64(100), (*big.Int)(gen.Balances[0].Amount).Int64())
	assert.Equal(t, "42", gen.Items[0].ID)
	assert.Equal(t, acc, *gen.Factory.Admin)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	rt, err := New(db, nil, Options{})
	require.NoError(t, err)
	head, err := rt.Genesis(gen)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), head.Time)

	_, err = LoadGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	tr := newTestRuntime(t)
	dev := DevAccounts()
	vaultAddr := tr.createVault()

	receipt, err := tr.exec(dev[0], vaultAddr, coins("reward", 1000), &vault.ExecuteMsg{
		CreateRewardPool: &vault.CreateRewardPoolMsg{
			Asset:       assets.Native("reward"),
			PeriodStart: 20,
			Duration:    100,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), receipt.Height)
	assert.Equal(t, uint64(20), receipt.Time)

	items := []ledger.Item{
		{Collection: DevCollection, TokenID: "0"},
		{Collection: DevCollection, TokenID: "1"},
	}
	receipt, err = tr.exec(dev[0], vaultAddr, nil, &vault.ExecuteMsg{Stake: &vault.StakeMsg{Items: items}})
	require.NoError(t, err)
	var stakeEvents int
	for _, ev := range receipt.Events {
		if ev.Type == "stake" {
			stakeEvents++
			assert.Equal(t, vaultAddr, ev.Contract)
		}
	}
	assert.Equal(t, 1, stakeEvents)

	require.NoError(t, tr.View(vaultAddr, func(env *xenv.Environment) error {
		v := vault.New(env)
		stake, err := v.EffectiveStake(dev[0])
		require.NoError(t, err)
		assert.Equal(t, int64(2), stake.Int64())

		pools, err := v.RewardPools()
		require.NoError(t, err)
		assert.Len(t, pools, 1)

		owner, _, err := env.Collections().OwnerOf(DevCollection, "0")
		require.NoError(t, err)
		assert.Equal(t, vaultAddr, owner)
		return nil
	}))

	// the window before the first stake is forfeited, the rest is paid to the only staker
	for range 11 {
		_, err = tr.exec(dev[0], vaultAddr, nil, &vault.ExecuteMsg{ClaimRewards: &vault.ClaimRewardsMsg{}})
		require.NoError(t, err)
	}
	initial, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	expected := new(big.Int).Sub(initial, big.NewInt(1000-900))
	assert.Equal(t, expected.String(), tr.balance(dev[0], assets.Native("reward")).String())

	head, err := tr.Head()
	require.NoError(t, err)
	assert.Equal(t, uint64(14), head.Number)
	assert.Equal(t, uint64(140), head.Time)

	events := tr.storedEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, uint64(1), events[0].Height)
	assert.Equal(t, uint64(10), events[0].Time)
}

func TestExecuteAtomic(t *testing.T) {
	tr := newTestRuntime(t)
	dev := DevAccounts()
	vaultAddr := tr.createVault()
	eventCount := len(tr.storedEvents())
	before := tr.balance(dev[0], assets.Native("reward"))

	// the funds reach the vault and the pool is registered before its instantiation fails
	_, err := tr.exec(dev[0], vaultAddr, coins("reward", 1000), &vault.ExecuteMsg{
		CreateRewardPool: &vault.CreateRewardPoolMsg{
			Asset:       assets.Native("reward"),
			PeriodStart: 20,
			Duration:    0,
		},
	})
	require.Error(t, err)
	assert.Equal(t, reverts.KindValidation, reverts.KindOf(err))

	assert.Equal(t, before.String(), tr.balance(dev[0], assets.Native("reward")).String())
	assert.Equal(t, int64(0), tr.balance(vaultAddr, assets.Native("reward")).Int64())
	assert.Len(t, tr.storedEvents(), eventCount)

	head, err := tr.Head()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), head.Number)

	require.NoError(t, tr.View(vaultAddr, func(env *xenv.Environment) error {
		pools, err := vault.New(env).RewardPools()
		require.NoError(t, err)
		assert.Empty(t, pools)
		return nil
	}))

	// the same pool can be created afterwards at the same address
	receipt, err := tr.exec(dev[0], vaultAddr, coins("reward", 1000), &vault.ExecuteMsg{
		CreateRewardPool: &vault.CreateRewardPoolMsg{
			Asset:       assets.Native("reward"),
			PeriodStart: 20,
			Duration:    100,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), receipt.Height)
}

func TestExecuteErrors(t *testing.T) {
	tr := newTestRuntime(t)
	dev := DevAccounts()
	vaultAddr := tr.createVault()

	_, err := tr.exec(dev[0], datagen.RandAddress(), nil, &vault.ExecuteMsg{Stake: &vault.StakeMsg{}})
	assert.Equal(t, reverts.KindNotFound, reverts.KindOf(err))

	_, err = tr.exec(dev[0], vaultAddr, nil, map[string]any{"unknown": struct{}{}})
	assert.Equal(t, reverts.KindValidation, reverts.KindOf(err))

	_, err = tr.exec(dev[0], vaultAddr, nil, &vault.ExecuteMsg{})
	assert.Equal(t, reverts.KindValidation, reverts.KindOf(err))

	// more funds than the sender holds
	_, err = tr.exec(datagen.RandAddress(), vaultAddr, coins("stake", 1), &vault.ExecuteMsg{Stake: &vault.StakeMsg{}})
	assert.Equal(t, reverts.KindExternal, reverts.KindOf(err))

	_, err = tr.exec(dev[0], vaultAddr, coins("reward", 1000), &vault.ExecuteMsg{
		CreateRewardPool: &vault.CreateRewardPoolMsg{Asset: assets.Native("reward"), PeriodStart: 20, Duration: 100},
	})
	require.NoError(t, err)
	var pools []common.Address
	require.NoError(t, tr.View(vaultAddr, func(env *xenv.Environment) (err error) {
		pools, err = vault.New(env).RewardPools()
		return
	}))
	require.Len(t, pools, 1)

	// reward pools are only called by their vault
	_, err = tr.exec(dev[0], pools[0], nil, map[string]any{})
	assert.Equal(t, reverts.KindUnauthorized, reverts.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Execute(ctx, &Command{Sender: dev[0], Contract: vaultAddr})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWaiter(t *testing.T) {
	tr := newTestRuntime(t)

	w := tr.NewWaiter()
	ch := w.C()
	tr.createVault()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken after commit")
	}
}

func TestClock(t *testing.T) {
	assert.Equal(t, uint64(110), FixedClock(10)(100))

	now := uint64(time.Now().Unix())
	assert.GreaterOrEqual(t, WallClock()(0), now)
	assert.Equal(t, now+1000, WallClock()(now+1000))
}
