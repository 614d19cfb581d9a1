// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/api/subscriptions"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/ledger"
	"github.com/vechain/stakevault/runtime"
	"github.com/vechain/stakevault/test/testchain"
	"github.com/vechain/stakevault/vault"
)

func initSubscriptionsServer(t *testing.T) (*httptest.Server, *testchain.Chain, *subscriptions.Subscriptions) {
	chain, err := testchain.New()
	require.NoError(t, err)
	t.Cleanup(chain.Close)

	subs := subscriptions.New(chain.Runtime(), chain.EventDB(), []string{"example.org"})
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, chain, subs
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *eventdb.Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev eventdb.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return &ev
}

func attr(ev *eventdb.Event, key string) string {
	for _, a := range ev.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func createVault(t *testing.T, chain *testchain.Chain) common.Address {
	addr, err := chain.CreateVault(vault.InstantiateMsg{
		Mode:          ledger.ModeBucketed,
		Collections:   []common.Address{runtime.DevCollection},
		RewardsCodeID: testchain.RewardsCodeID,
	})
	require.NoError(t, err)
	return addr
}

func TestSubscribeEvents(t *testing.T) {
	ts, chain, subs := initSubscriptionsServer(t)

	conn := dial(t, ts, "?type=create-vault")
	defer conn.Close()

	// events committed after subscribing are pushed
	addr := createVault(t, chain)
	ev := readEvent(t, conn)
	assert.Equal(t, "create-vault", ev.Type)
	assert.Equal(t, uint64(1), ev.Height)
	assert.Equal(t, runtime.FactoryAddress, ev.Contract)
	assert.Equal(t, addr.String(), attr(ev, "address"))

	createVault(t, chain)
	ev = readEvent(t, conn)
	assert.Equal(t, uint64(2), ev.Height)

	subs.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
}

func TestSubscribeFromPosition(t *testing.T) {
	ts, chain, _ := initSubscriptionsServer(t)

	first := createVault(t, chain)
	createVault(t, chain)

	// past events are replayed from the given height
	conn := dial(t, ts, "?pos=1&contract="+runtime.FactoryAddress.String())
	defer conn.Close()

	ev := readEvent(t, conn)
	assert.Equal(t, uint64(1), ev.Height)
	assert.Equal(t, runtime.FactoryAddress, ev.Contract)

	for ev.Type != "create-vault" {
		ev = readEvent(t, conn)
	}
	assert.Equal(t, uint64(1), ev.Height)
	assert.Equal(t, first.String(), attr(ev, "address"))
}

func TestSubscribeInvalid(t *testing.T) {
	ts, _, _ := initSubscriptionsServer(t)

	u := ts.URL + "/subscriptions/events"
	_, status := testchain.HTTPGet(t, u+"?contract=0xzz")
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = testchain.HTTPGet(t, u+"?pos=-1")
	assert.Equal(t, http.StatusBadRequest, status)

	// a cross origin not allowed is refused
	header := http.Header{"Origin": {"http://evil.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(u, "http"), header)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	}

	header = http.Header{"Origin": {"https://example.org"}}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(u, "http"), header)
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}
