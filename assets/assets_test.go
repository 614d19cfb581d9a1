// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
)

func newState(t *testing.T) *state.State {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db, nil)
}

func TestParseAsset(t *testing.T) {
	token := common.BytesToAddress([]byte("token"))

	asset, err := ParseAsset("native:uvet")
	require.NoError(t, err)
	assert.Equal(t, Native("uvet"), asset)

	asset, err = ParseAsset(Pooled(token).ID())
	require.NoError(t, err)
	assert.Equal(t, Pooled(token), asset)

	for _, s := range []string{"", "native:", "pooled:0x12", "erc20:0x00", "pooled:" + (common.Address{}).String()} {
		_, err := ParseAsset(s)
		assert.Error(t, err, s)
	}
}

func TestAssetJSON(t *testing.T) {
	var v struct {
		Asset Asset `json:"asset"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"asset":"native:uvet"}`), &v))
	assert.Equal(t, Native("uvet"), v.Asset)

	data, err := json.Marshal(&v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"asset":"native:uvet"}`, string(data))
}

func TestCoinJSON(t *testing.T) {
	var coins Coins
	require.NoError(t, json.Unmarshal([]byte(`[{"denom":"uvet","amount":"1000"},{"denom":"ustake","amount":"0x10"}]`), &coins))
	require.Len(t, coins, 2)
	assert.Equal(t, int64(1000), coins[0].Amount.Int64())
	assert.Equal(t, int64(16), coins[1].Amount.Int64())
	assert.NoError(t, coins.Validate())

	data, err := json.Marshal(coins[:1])
	require.NoError(t, err)
	assert.JSONEq(t, `[{"denom":"uvet","amount":"0x3e8"}]`, string(data))
}

func TestMustPay(t *testing.T) {
	amount, err := MustPay(Coins{{Denom: "uvet", Amount: big.NewInt(5)}}, "uvet")
	require.NoError(t, err)
	assert.Equal(t, int64(5), amount.Int64())

	cases := []Coins{
		nil,
		{{Denom: "uvet", Amount: big.NewInt(5)}, {Denom: "ustake", Amount: big.NewInt(1)}},
		{{Denom: "ustake", Amount: big.NewInt(5)}},
		{{Denom: "uvet", Amount: big.NewInt(0)}},
	}
	for _, funds := range cases {
		_, err := MustPay(funds, "uvet")
		assert.Equal(t, reverts.KindExternal, reverts.KindOf(err))
	}
}

func TestNonpayable(t *testing.T) {
	assert.NoError(t, Nonpayable(nil))
	assert.NoError(t, Nonpayable(Coins{{Denom: "uvet", Amount: big.NewInt(0)}}))
	assert.Error(t, Nonpayable(Coins{{Denom: "uvet", Amount: big.NewInt(1)}}))
}

func TestBank(t *testing.T) {
	bank := NewBank(newState(t))
	alice := common.BytesToAddress([]byte("alice"))
	bob := common.BytesToAddress([]byte("bob"))
	uvet := Native("uvet")

	require.NoError(t, bank.Mint(alice, uvet, big.NewInt(100)))
	require.NoError(t, bank.Transfer(alice, bob, uvet, big.NewInt(30)))

	balance, err := bank.Balance(alice, uvet)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance.Int64())
	balance, err = bank.Balance(bob, uvet)
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance.Int64())

	balance, err = bank.Balance(bob, Native("other"))
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	err = bank.Transfer(bob, alice, uvet, big.NewInt(31))
	assert.Equal(t, reverts.KindExternal, reverts.KindOf(err))

	assert.NoError(t, bank.Transfer(bob, alice, uvet, big.NewInt(0)))
}

func TestCollections(t *testing.T) {
	cols := NewCollections(newState(t))
	collection := common.BytesToAddress([]byte("punks"))
	alice := common.BytesToAddress([]byte("alice"))
	bob := common.BytesToAddress([]byte("bob"))

	_, found, err := cols.OwnerOf(collection, "1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cols.Mint(collection, "1", alice))
	assert.Error(t, cols.Mint(collection, "1", bob))

	err = cols.Transfer(collection, "1", bob, alice)
	assert.Equal(t, reverts.KindExternal, reverts.KindOf(err))
	err = cols.Transfer(collection, "2", alice, bob)
	assert.Equal(t, reverts.KindExternal, reverts.KindOf(err))

	require.NoError(t, cols.Transfer(collection, "1", alice, bob))
	owner, found, err := cols.OwnerOf(collection, "1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bob, owner)
}
