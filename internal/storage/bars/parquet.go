// Package bars persists daily bars as Parquet files so repeated backtests do
// not refetch history from the network.
package bars

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/collector"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ collector.BarStore = (*ParquetStore)(nil)

// safeName keeps symbols and periods usable as path segments.
var safeName = regexp.MustCompile(`^[A-Za-z0-9^._-]{1,32}$`)

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// ParquetStore keeps one file per symbol and period at
//
//	<DataDir>/<SYMBOL>/<period>.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

func (s *ParquetStore) path(symbol, period string) (string, error) {
	if !safeName.MatchString(symbol) || !safeName.MatchString(period) || strings.Contains(symbol, "..") {
		return "", core.WrapError(core.ErrStorageFailed, fmt.Errorf("unsafe bar file name %q/%q", symbol, period))
	}
	return filepath.Join(s.DataDir, strings.ToUpper(symbol), period+".parquet"), nil
}

// Save replaces the stored bars of symbol and period.
func (s *ParquetStore) Save(symbol, period string, bars []core.OHLCV) error {
	path, err := s.path(symbol, period)
	if err != nil {
		return err
	}

	records := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, BarRecord{
			Symbol:    b.Symbol,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, records); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("writing bars for %s: %w", symbol, err))
	}
	if err := os.Rename(tmp, path); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// Load returns the stored bars sorted by time and the file's modification time.
func (s *ParquetStore) Load(symbol, period string) ([]core.OHLCV, time.Time, error) {
	path, err := s.path(symbol, period)
	if err != nil {
		return nil, time.Time{}, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, time.Time{}, core.WrapError(core.ErrNoData, fmt.Errorf("no stored bars for %s/%s", symbol, period))
	}
	if err != nil {
		return nil, time.Time{}, core.WrapError(core.ErrStorageFailed, err)
	}

	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, time.Time{}, core.WrapError(core.ErrStorageFailed, fmt.Errorf("reading %s: %w", path, err))
	}

	out := make([]core.OHLCV, 0, len(records))
	for _, r := range records {
		out = append(out, core.OHLCV{
			Symbol:   r.Symbol,
			Interval: "1d",
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			Time:     time.UnixMilli(r.Timestamp).UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	return out, info.ModTime(), nil
}

// Symbols lists the symbols with stored bars.
func (s *ParquetStore) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	return symbols, nil
}
