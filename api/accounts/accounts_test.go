// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/api/accounts"
	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/test/datagen"
	"github.com/vechain/stakevault/test/testchain"
)

func initAccountsServer(t *testing.T) (*httptest.Server, *testchain.Chain) {
	chain, err := testchain.New()
	require.NoError(t, err)
	t.Cleanup(chain.Close)

	router := mux.NewRouter()
	accounts.New(chain.Runtime()).Mount(router, "/accounts", "/collections")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, chain
}

func TestGetBalance(t *testing.T) {
	ts, chain := initAccountsServer(t)
	account := chain.Accounts()[1]

	body, status := testchain.HTTPGet(t, ts.URL+"/accounts/"+account.String()+"/balances/native:stake")
	require.Equal(t, http.StatusOK, status, string(body))

	var balance accounts.Balance
	require.NoError(t, json.Unmarshal(body, &balance))
	assert.Equal(t, account, balance.Account)
	assert.Equal(t, assets.Native("stake"), balance.Asset)
	assert.Equal(t, "1000000000000000000000000", balance.Amount.String())

	body, status = testchain.HTTPGet(t, ts.URL+"/accounts/"+datagen.RandAddress().String()+"/balances/native:stake")
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &balance))
	assert.Equal(t, "0", balance.Amount.String())

	_, status = testchain.HTTPGet(t, ts.URL+"/accounts/"+account.String()+"/balances/stake")
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = testchain.HTTPGet(t, ts.URL+"/accounts/abc/balances/native:stake")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetItem(t *testing.T) {
	ts, chain := initAccountsServer(t)

	body, status := testchain.HTTPGet(t, ts.URL+"/collections/"+runtime.DevCollection.String()+"/items/7")
	require.Equal(t, http.StatusOK, status, string(body))

	var item accounts.Item
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, runtime.DevCollection, item.Collection)
	assert.Equal(t, "7", item.TokenID)
	require.NotNil(t, item.Owner)
	assert.Equal(t, chain.Accounts()[1], *item.Owner)

	body, status = testchain.HTTPGet(t, ts.URL+"/collections/"+runtime.DevCollection.String()+"/items/unminted")
	require.Equal(t, http.StatusOK, status, string(body))
	item = accounts.Item{}
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Nil(t, item.Owner)
}
