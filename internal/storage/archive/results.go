package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/core"
)

const resultsRoot = "results"

// Document is the archived form of one backtest run.
type Document struct {
	RunID     string              `json:"run_id"`
	Config    backtest.RunConfig  `json:"config"`
	Result    *backtest.Result    `json:"result"`
	Benchmark *backtest.Benchmark `json:"benchmark,omitempty"`
}

// Results stores run documents in a backend, keyed by symbol and run ID.
type Results struct {
	backend Backend
}

// NewResults wraps backend.
func NewResults(backend Backend) *Results {
	return &Results{backend: backend}
}

// ResultKey is results/<SYMBOL>/<run id>.json.
func ResultKey(symbol, runID string) string {
	return path.Join(resultsRoot, strings.ToUpper(symbol), runID+".json")
}

// Save writes doc and returns its key.
func (r *Results) Save(ctx context.Context, doc Document) (string, error) {
	if doc.RunID == "" || doc.Result == nil {
		return "", core.WrapError(core.ErrStorageFailed, fmt.Errorf("document needs a run id and a result"))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrStorageFailed, fmt.Errorf("encoding result: %w", err))
	}
	key := ResultKey(doc.Result.Symbol, doc.RunID)
	if err := r.backend.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Load reads the document of a run.
func (r *Results) Load(ctx context.Context, symbol, runID string) (*Document, error) {
	data, err := r.backend.Get(ctx, ResultKey(symbol, runID))
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("decoding result: %w", err))
	}
	return &doc, nil
}

// RunIDs lists the archived runs of symbol, sorted.
func (r *Results) RunIDs(ctx context.Context, symbol string) ([]string, error) {
	keys, err := r.backend.List(ctx, path.Join(resultsRoot, strings.ToUpper(symbol))+"/")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			ids = append(ids, strings.TrimSuffix(path.Base(k), ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}
