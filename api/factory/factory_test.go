// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package factory_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/api/factory"
	"github.com/vechain/stakevault/common"
	contract "github.com/vechain/stakevault/factory"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/test/testchain"
	"github.com/vechain/stakevault/vault"
)

func initFactoryServer(t *testing.T) (*httptest.Server, *testchain.Chain) {
	chain, err := testchain.New()
	require.NoError(t, err)
	t.Cleanup(chain.Close)

	router := mux.NewRouter()
	factory.New(chain.Runtime(), runtime.FactoryAddress).Mount(router, "/factory")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, chain
}

func TestGetConfig(t *testing.T) {
	ts, chain := initFactoryServer(t)

	body, status := testchain.HTTPGet(t, ts.URL+"/factory")
	require.Equal(t, http.StatusOK, status, string(body))

	var cfg factory.Config
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, runtime.FactoryAddress, cfg.Address)
	assert.Equal(t, chain.Accounts()[0], cfg.Admin)
	assert.Equal(t, uint64(testchain.VaultCodeID), cfg.VaultCodeID)
}

func TestGetVaults(t *testing.T) {
	ts, chain := initFactoryServer(t)

	body, status := testchain.HTTPGet(t, ts.URL+"/factory/vaults")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, "[]", string(body))

	var created []common.Address
	for range 3 {
		addr, err := chain.CreateVault(vault.InstantiateMsg{
			Mode:          ledger.ModeBucketed,
			Collections:   []common.Address{runtime.DevCollection},
			RewardsCodeID: testchain.RewardsCodeID,
		})
		require.NoError(t, err)
		created = append(created, addr)
	}

	var entries []contract.Entry
	body, status = testchain.HTTPGet(t, ts.URL+"/factory/vaults")
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, uint64(i), entry.Index)
		assert.Equal(t, created[i], entry.Address)
	}

	body, status = testchain.HTTPGet(t, ts.URL+"/factory/vaults?order=desc&limit=2")
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, created[2], entries[0].Address)
	assert.Equal(t, created[1], entries[1].Address)

	_, status = testchain.HTTPGet(t, ts.URL+"/factory/vaults?limit=x")
	assert.Equal(t, http.StatusBadRequest, status)
}
