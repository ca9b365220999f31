package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ prometheus.Gatherer = (*Registry)(nil)

func TestNewRegistry_ExposesServiceMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRequest("GET", "GET /api/health", 200, 0.001)
	reg.RecordBacktest("success", 0.4)
	reg.RecordOutcome("default", 1.2, map[string]int{"BUY": 1}, map[string]int{"HOLD": 1})
	reg.RecordCacheLookup(true)
	reg.RecordSnapshot()
	reg.SetJobsActive("replay", 1)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"http_requests_total",
		"http_request_duration_seconds",
		"http_requests_in_flight",
		"tradebot_backtests_total",
		"tradebot_backtest_duration_seconds",
		"tradebot_trades_total",
		"tradebot_signals_total",
		"tradebot_backtest_return_percent",
		"tradebot_history_cache_lookups_total",
		"tradebot_snapshots_published_total",
		"tradebot_jobs_active",
		"go_goroutines",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestStatusToString(t *testing.T) {
	tests := map[int]string{
		100: "1xx",
		200: "2xx",
		202: "2xx",
		304: "3xx",
		400: "4xx",
		401: "4xx",
		404: "4xx",
		500: "5xx",
		502: "5xx",
		504: "5xx",
	}
	for status, want := range tests {
		assert.Equal(t, want, statusToString(status), "status %d", status)
	}
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("POST", "POST /api/backtest", 202, 0.123)
	reg.RecordRequest("POST", "POST /api/backtest", 400, 0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsTotal.WithLabelValues("POST", "POST /api/backtest", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsTotal.WithLabelValues("POST", "POST /api/backtest", "4xx")))
	// both observations land in one series
	assert.Equal(t, 1, testutil.CollectAndCount(reg.httpRequestDuration))
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsInFlight))
}

func TestRegistry_RecordBacktest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest("success", 0.2)
	reg.RecordBacktest("success", 0.3)
	reg.RecordBacktest("failed", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.backtestsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.backtestsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(reg.backtestDuration))
}

func TestRegistry_RecordOutcome(t *testing.T) {
	reg := NewRegistry()

	reg.RecordOutcome("momentum", 1.2,
		map[string]int{"BUY": 2, "SELL_CLOSE": 1, "STOP_LOSS": 1},
		map[string]int{"HOLD": 7, "BUY": 3},
	)
	reg.RecordOutcome("momentum", -3, map[string]int{"BUY": 1}, nil)
	reg.RecordOutcome("scalper", 0.5, nil, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(reg.tradesTotal.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.tradesTotal.WithLabelValues("STOP_LOSS")))
	assert.Equal(t, 7.0, testutil.ToFloat64(reg.signalsTotal.WithLabelValues("HOLD")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.signalsTotal.WithLabelValues("BUY")))
	// one return series per strategy
	assert.Equal(t, 2, testutil.CollectAndCount(reg.returnPct))
}

func TestRegistry_CacheSnapshotsAndJobs(t *testing.T) {
	reg := NewRegistry()

	reg.RecordCacheLookup(true)
	reg.RecordCacheLookup(true)
	reg.RecordCacheLookup(false)
	reg.RecordSnapshot()
	reg.RecordSnapshot()
	reg.SetJobsActive("backtest", 2)
	reg.SetJobsActive("backtest", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.snapshotsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.jobsActive.WithLabelValues("backtest")))
}
