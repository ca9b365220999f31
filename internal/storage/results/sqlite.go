package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS backtest_runs (
		run_id               TEXT PRIMARY KEY,
		symbol               TEXT NOT NULL,
		strategy             TEXT NOT NULL,
		period               TEXT NOT NULL,
		start_date           TEXT NOT NULL,
		end_date             TEXT NOT NULL,
		bars                 INTEGER NOT NULL,
		initial_capital      REAL NOT NULL,
		final_capital        REAL NOT NULL,
		total_return_pct     REAL NOT NULL,
		max_drawdown_pct     REAL NOT NULL,
		sharpe_ratio         REAL NOT NULL,
		win_rate             REAL NOT NULL,
		trades               INTEGER NOT NULL,
		benchmark_return_pct REAL,
		created_at           TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backtest_runs_symbol ON backtest_runs(symbol, created_at)`,
}

// SQLiteStore implements Store backed by a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the schema.
func NewSQLiteStore(ctx context.Context, dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("opening %s: %w", dbPath, err))
	}
	// a single writer avoids SQLITE_BUSY from concurrent sweeps
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("migrating: %w", err))
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("results store ready", zap.String("backend", "sqlite"), zap.String("path", dbPath))
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the record with the same run ID.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO backtest_runs (
		run_id, symbol, strategy, period, start_date, end_date, bars,
		initial_capital, final_capital, total_return_pct, max_drawdown_pct,
		sharpe_ratio, win_rate, trades, benchmark_return_pct, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Symbol, rec.Strategy, rec.Period,
		formatTime(rec.StartDate), formatTime(rec.EndDate), rec.Bars,
		rec.InitialCapital, rec.FinalCapital, rec.TotalReturnPct, rec.MaxDrawdownPct,
		rec.SharpeRatio, rec.WinRate, rec.Trades, rec.BenchmarkReturnPct, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("saving run %s: %w", rec.RunID, err))
	}
	return nil
}

const sqliteColumns = `run_id, symbol, strategy, period, start_date, end_date, bars,
	initial_capital, final_capital, total_return_pct, max_drawdown_pct,
	sharpe_ratio, win_rate, trades, benchmark_return_pct, created_at`

func (s *SQLiteStore) Get(ctx context.Context, runID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, core.WrapError(core.ErrNoData, fmt.Errorf("run %s", runID))
	}
	if err != nil {
		return Record{}, core.WrapError(core.ErrStorageFailed, err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Record, error) {
	query := `SELECT ` + sqliteColumns + ` FROM backtest_runs`
	args := []any{}
	if f.Symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, f.Symbol)
	}
	query += ` ORDER BY created_at DESC, run_id DESC LIMIT ?`
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanSQLite(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (Record, error) {
	var (
		rec                 Record
		start, end, created string
		bench               sql.NullFloat64
	)
	err := row.Scan(&rec.RunID, &rec.Symbol, &rec.Strategy, &rec.Period, &start, &end, &rec.Bars,
		&rec.InitialCapital, &rec.FinalCapital, &rec.TotalReturnPct, &rec.MaxDrawdownPct,
		&rec.SharpeRatio, &rec.WinRate, &rec.Trades, &bench, &created)
	if err != nil {
		return Record{}, err
	}
	if bench.Valid {
		v := bench.Float64
		rec.BenchmarkReturnPct = &v
	}
	if rec.StartDate, err = parseTime(start); err != nil {
		return Record{}, err
	}
	if rec.EndDate, err = parseTime(end); err != nil {
		return Record{}, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
