// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/api/pools"
	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/test/datagen"
	"github.com/vechain/stakevault/test/testchain"
	"github.com/vechain/stakevault/vault"
)

var (
	ts        *httptest.Server
	chain     *testchain.Chain
	vaultAddr common.Address
	poolAddr  common.Address
)

func TestPools(t *testing.T) {
	initPoolsServer(t)
	defer ts.Close()
	defer chain.Close()

	for name, tt := range map[string]func(*testing.T){
		"getPool":             getPool,
		"getUserReward":       getUserReward,
		"getLatestUserReward": getLatestUserReward,
		"getPoolErrors":       getPoolErrors,
	} {
		t.Run(name, tt)
	}
}

func initPoolsServer(t *testing.T) {
	var err error
	chain, err = testchain.New()
	require.NoError(t, err)

	vaultAddr, err = chain.CreateVault(vault.InstantiateMsg{
		Mode:           ledger.ModeBucketed,
		Collections:    []common.Address{runtime.DevCollection},
		RewardsCodeID:  testchain.RewardsCodeID,
		UnstakingDelay: 100,
	})
	require.NoError(t, err)
	poolAddr, err = chain.CreateRewardPool(vaultAddr, "reward", 1000, 20, 100)
	require.NoError(t, err)

	accounts := chain.Accounts()
	// two items staked at time 30, then another account joins at time 40
	_, err = chain.Exec(accounts[0], vaultAddr, nil, &vault.ExecuteMsg{Stake: &vault.StakeMsg{Items: []ledger.Item{
		{Collection: runtime.DevCollection, TokenID: "0"},
		{Collection: runtime.DevCollection, TokenID: "1"},
	}}})
	require.NoError(t, err)
	_, err = chain.Exec(accounts[1], vaultAddr, nil, &vault.ExecuteMsg{Stake: &vault.StakeMsg{Items: []ledger.Item{
		{Collection: runtime.DevCollection, TokenID: "5"},
	}}})
	require.NoError(t, err)

	router := mux.NewRouter()
	pools.New(chain.Runtime()).Mount(router, "/pools")
	ts = httptest.NewServer(router)
}

func getPool(t *testing.T) {
	body, status := testchain.HTTPGet(t, ts.URL+"/pools/"+poolAddr.String())
	require.Equal(t, http.StatusOK, status, string(body))

	var pool pools.Pool
	require.NoError(t, json.Unmarshal(body, &pool))
	assert.Equal(t, poolAddr, pool.Address)
	assert.Equal(t, vaultAddr, pool.Config.Vault)
	assert.Equal(t, chain.Accounts()[0], pool.Config.Funder)
	assert.Equal(t, assets.Native("reward"), pool.Config.Asset)
	assert.Equal(t, uint64(20), pool.Config.PeriodStart)
	assert.Equal(t, uint64(120), pool.Config.PeriodFinish)
	assert.Equal(t, "1000", pool.Balance.String())
	assert.Equal(t, uint64(40), pool.Accumulator.LastUpdate)
}

func getUserReward(t *testing.T) {
	body, status := testchain.HTTPGet(t, ts.URL+"/pools/"+poolAddr.String()+"/users/"+chain.Accounts()[0].String())
	require.Equal(t, http.StatusOK, status, string(body))

	var res pools.UserReward
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, chain.Accounts()[0], res.Account)
	assert.Zero(t, res.Time)
	assert.Equal(t, "0", res.Pending.String())
	assert.Equal(t, "0", res.Claimed.String())
}

func getLatestUserReward(t *testing.T) {
	body, status := testchain.HTTPGet(t, ts.URL+"/pools/"+poolAddr.String()+"/users/"+chain.Accounts()[0].String()+"?latest=true")
	require.Equal(t, http.StatusOK, status, string(body))

	var res pools.UserReward
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, uint64(40), res.Time)
	// 10 per time unit over [30, 40], all of it to the only staker
	assert.Equal(t, "100", res.Pending.String())

	body, status = testchain.HTTPGet(t, ts.URL+"/pools/"+poolAddr.String()+"/users/"+datagen.RandAddress().String()+"?latest=true")
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "0", res.Pending.String())
}

func getPoolErrors(t *testing.T) {
	var res utils.ErrorResponse

	body, status := testchain.HTTPGet(t, ts.URL+"/pools/"+datagen.RandAddress().String())
	assert.Equal(t, http.StatusNotFound, status)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "not-found", res.Kind)

	// a vault is not a pool
	_, status = testchain.HTTPGet(t, ts.URL+"/pools/"+vaultAddr.String())
	assert.Equal(t, http.StatusNotFound, status)

	_, status = testchain.HTTPGet(t, ts.URL+"/pools/0x1234")
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = testchain.HTTPGet(t, ts.URL+"/pools/"+poolAddr.String()+"/users/"+chain.Accounts()[0].String()+"?latest=maybe")
	assert.Equal(t, http.StatusBadRequest, status)
}
