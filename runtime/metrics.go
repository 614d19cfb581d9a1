// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/vechain/stakevault/metrics"

var (
	metricCommandCount      = metrics.LazyLoadCounterVec("runtime_command_count", []string{"kind", "status"})
	metricExecutionDuration = metrics.LazyLoadHistogram("runtime_execution_duration_ms", metrics.BucketExecution)
	metricHeight            = metrics.LazyLoadGauge("runtime_height")
)
