package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS backtest_runs (
		run_id               TEXT PRIMARY KEY,
		symbol               TEXT NOT NULL,
		strategy             TEXT NOT NULL,
		period               TEXT NOT NULL,
		start_date           TIMESTAMPTZ NOT NULL,
		end_date             TIMESTAMPTZ NOT NULL,
		bars                 INTEGER NOT NULL,
		initial_capital      DOUBLE PRECISION NOT NULL,
		final_capital        DOUBLE PRECISION NOT NULL,
		total_return_pct     DOUBLE PRECISION NOT NULL,
		max_drawdown_pct     DOUBLE PRECISION NOT NULL,
		sharpe_ratio         DOUBLE PRECISION NOT NULL,
		win_rate             DOUBLE PRECISION NOT NULL,
		trades               INTEGER NOT NULL,
		benchmark_return_pct DOUBLE PRECISION,
		created_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backtest_runs_symbol ON backtest_runs(symbol, created_at)`,
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, verifies connectivity and applies the schema.
func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing connection string: %w", err))
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("pinging database: %w", err))
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("migrating: %w", err))
		}
	}

	logger.Info("results database connected", zap.Int32("max_conns", config.MaxConns))
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save upserts the record by run ID.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO backtest_runs (
		run_id, symbol, strategy, period, start_date, end_date, bars,
		initial_capital, final_capital, total_return_pct, max_drawdown_pct,
		sharpe_ratio, win_rate, trades, benchmark_return_pct, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (run_id) DO UPDATE SET
		symbol = EXCLUDED.symbol,
		strategy = EXCLUDED.strategy,
		period = EXCLUDED.period,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		bars = EXCLUDED.bars,
		initial_capital = EXCLUDED.initial_capital,
		final_capital = EXCLUDED.final_capital,
		total_return_pct = EXCLUDED.total_return_pct,
		max_drawdown_pct = EXCLUDED.max_drawdown_pct,
		sharpe_ratio = EXCLUDED.sharpe_ratio,
		win_rate = EXCLUDED.win_rate,
		trades = EXCLUDED.trades,
		benchmark_return_pct = EXCLUDED.benchmark_return_pct,
		created_at = EXCLUDED.created_at`,
		rec.RunID, rec.Symbol, rec.Strategy, rec.Period, rec.StartDate, rec.EndDate, rec.Bars,
		rec.InitialCapital, rec.FinalCapital, rec.TotalReturnPct, rec.MaxDrawdownPct,
		rec.SharpeRatio, rec.WinRate, rec.Trades, rec.BenchmarkReturnPct, rec.CreatedAt,
	)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("saving run %s: %w", rec.RunID, err))
	}
	return nil
}

const postgresColumns = `run_id, symbol, strategy, period, start_date, end_date, bars,
	initial_capital, final_capital, total_return_pct, max_drawdown_pct,
	sharpe_ratio, win_rate, trades, benchmark_return_pct, created_at`

func (s *PostgresStore) Get(ctx context.Context, runID string) (Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresColumns+` FROM backtest_runs WHERE run_id = $1`, runID)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, core.WrapError(core.ErrNoData, fmt.Errorf("run %s", runID))
	}
	if err != nil {
		return Record{}, core.WrapError(core.ErrStorageFailed, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Record, error) {
	query := `SELECT ` + postgresColumns + ` FROM backtest_runs`
	args := []any{}
	if f.Symbol != "" {
		args = append(args, f.Symbol)
		query += ` WHERE symbol = $1`
	}
	args = append(args, f.limit())
	query += fmt.Sprintf(` ORDER BY created_at DESC, run_id DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return records, nil
}

func scanPostgres(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.RunID, &rec.Symbol, &rec.Strategy, &rec.Period, &rec.StartDate, &rec.EndDate, &rec.Bars,
		&rec.InitialCapital, &rec.FinalCapital, &rec.TotalReturnPct, &rec.MaxDrawdownPct,
		&rec.SharpeRatio, &rec.WinRate, &rec.Trades, &rec.BenchmarkReturnPct, &rec.CreatedAt)
	return rec, err
}
