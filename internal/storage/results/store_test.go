package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(runID, symbol string, created time.Time) Record {
	return Record{
		RunID:          runID,
		Symbol:         symbol,
		Strategy:       "MA(10/30)",
		Period:         "1y",
		StartDate:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Bars:           250,
		InitialCapital: 10000,
		FinalCapital:   10120,
		TotalReturnPct: 1.2,
		MaxDrawdownPct: 0.4,
		SharpeRatio:    1.1,
		WinRate:        100,
		Trades:         2,
		CreatedAt:      created,
	}
}

func TestFromResult(t *testing.T) {
	r := &backtest.Result{
		Symbol:         "NIO",
		Strategy:       "MA(10/30)",
		Bars:           40,
		InitialCapital: 10000,
		FinalCapital:   10120,
		Stats:          backtest.Stats{TotalTrades: 2, TotalReturnPct: 1.2, WinRate: 100},
	}

	rec := FromResult("run-1", "1y", r, nil)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, "NIO", rec.Symbol)
	assert.Equal(t, 2, rec.Trades)
	assert.Equal(t, 1.2, rec.TotalReturnPct)
	assert.Nil(t, rec.BenchmarkReturnPct)
	assert.False(t, rec.CreatedAt.IsZero())

	rec = FromResult("run-1", "1y", r, &backtest.Benchmark{ReturnPct: 81.8})
	require.NotNil(t, rec.BenchmarkReturnPct)
	assert.Equal(t, 81.8, *rec.BenchmarkReturnPct)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "db", "runs.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	t0 := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	bench := 81.8
	first := record("run-a", "NIO", t0)
	first.BenchmarkReturnPct = &bench
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, record("run-b", "SPY", t0.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, record("run-c", "NIO", t0.Add(2*time.Hour))))

	got, err := store.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-c", all[0].RunID, "newest first")

	nio, err := store.List(ctx, Filter{Symbol: "NIO", Limit: 1})
	require.NoError(t, err)
	require.Len(t, nio, 1)
	assert.Equal(t, "run-c", nio[0].RunID)

	// saving the same run id replaces the row
	updated := record("run-a", "NIO", t0)
	updated.FinalCapital = 9000
	require.NoError(t, store.Save(ctx, updated))
	got, err = store.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 9000.0, got.FinalCapital)
	assert.Nil(t, got.BenchmarkReturnPct)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNoData), "got %v", err)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := Open(ctx, "sqlite:"+path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record("run-a", "NIO", time.Now().UTC())))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, "run-a")
	assert.NoError(t, err)
}

func TestOpen_Empty(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

// TestPostgresStore runs against a real server when TRADEBOT_TEST_POSTGRES
// holds a connection string.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TRADEBOT_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("TRADEBOT_TEST_POSTGRES not set")
	}
	ctx := context.Background()

	store, err := Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer store.Close()

	runID := "test-" + time.Now().Format("150405.000000000")
	rec := record(runID, "NIO", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, rec.FinalCapital, got.FinalCapital)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	_, err = store.Get(ctx, "missing-"+runID)
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestPostgresStore_BadDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", nil)
	assert.Error(t, err)
}
