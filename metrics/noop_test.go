// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	noop := defaultNoopMetrics()

	// none of these should panic
	noop.GetOrCreateCountMeter("c").Add(1)
	noop.GetOrCreateCountVecMeter("cv", []string{"l"}).AddWithLabel(1, map[string]string{"l": "x"})
	noop.GetOrCreateGaugeMeter("g").Set(1)
	noop.GetOrCreateGaugeVecMeter("gv", []string{"l"}).SetWithLabel(1, map[string]string{"l": "x"})
	noop.GetOrCreateHistogramMeter("h", nil).Observe(1)
	noop.GetOrCreateHistogramVecMeter("hv", []string{"l"}, nil).ObserveWithLabels(1, map[string]string{"l": "x"})

	server := httptest.NewServer(noop.GetOrCreateHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
