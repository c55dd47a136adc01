// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"time"

	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/reverts"
)

var (
	metricOperationCount    = metrics.LazyLoadCounterVec("staking_operation_count", []string{"op", "result"})
	metricOperationDuration = metrics.LazyLoadHistogramVec("staking_operation_duration_ms", []string{"op"}, metrics.BucketHTTPReqs)
	metricTotalStaked       = metrics.LazyLoadGaugeVec("staking_total_staked", []string{"campaign"})
	metricCommitted         = metrics.LazyLoadGaugeVec("staking_committed_reward", []string{"campaign"})
)

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case reverts.IsRevertErr(err):
		return "revert"
	case reverts.IsFatalErr(err):
		return "fatal"
	default:
		return "error"
	}
}

func observe(kind eventlog.Kind, began time.Time, err error) {
	op := string(kind)
	metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "result": result(err)})
	metricOperationDuration().ObserveWithLabels(time.Since(began).Milliseconds(), map[string]string{"op": op})
}

func reportCampaign(c *campaign.Campaign) {
	label := map[string]string{"campaign": c.ID.String()}
	metricTotalStaked().SetWithLabel(int64(c.TotalStaked), label)
	metricCommitted().SetWithLabel(int64(c.Committed), label)
}
