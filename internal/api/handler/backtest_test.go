package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/api/job"
	"github.com/ThomasGit2000/trading-bot/internal/api/response"
	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
)

type fakeRunner struct {
	resolveErr error
	runErr     error
	replays    atomic.Int32
	backtests  atomic.Int32
}

func (f *fakeRunner) Resolve(req app.RunRequest) (backtest.RunConfig, string, error) {
	if f.resolveErr != nil {
		return backtest.RunConfig{}, "", f.resolveErr
	}
	return backtest.DefaultRunConfig(req.Symbol), "default", nil
}

func (f *fakeRunner) outcome(req app.RunRequest) (*app.Outcome, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &app.Outcome{
		RunID:  "run-1",
		Preset: "default",
		Config: backtest.DefaultRunConfig(req.Symbol),
		Result: &backtest.Result{Symbol: req.Symbol, Stats: backtest.Stats{TotalReturnPct: 1.2}},
	}, nil
}

func (f *fakeRunner) Backtest(ctx context.Context, req app.RunRequest) (*app.Outcome, error) {
	f.backtests.Add(1)
	return f.outcome(req)
}

func (f *fakeRunner) Replay(ctx context.Context, req app.RunRequest, delay time.Duration) (*app.Outcome, error) {
	f.replays.Add(1)
	return f.outcome(req)
}

func newBacktestHandler(runner Runner) (*BacktestHandler, *job.Store) {
	jobs := job.NewStore(100, time.Hour)
	return NewBacktestHandler(jobs, runner, metrics.NewRegistry(), 0, nil), jobs
}

func postBacktest(h *BacktestHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/backtest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Create(w, req)
	return w
}

func waitDone(t *testing.T, jobs *job.Store, id string) *job.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := jobs.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if j.Status.Done() {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return nil
}

func jobID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["status"] != "pending" {
		t.Errorf("expected pending status, got %v", data["status"])
	}
	id, _ := data["job_id"].(string)
	if id == "" {
		t.Fatal("expected job_id in response")
	}
	return id
}

func TestBacktestHandler_Create(t *testing.T) {
	runner := &fakeRunner{}
	h, jobs := newBacktestHandler(runner)

	w := postBacktest(h, `{"symbol": "AAPL", "preset": "default", "period": "1y"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	j := waitDone(t, jobs, jobID(t, w))
	if j.Status != job.StatusComplete {
		t.Fatalf("expected complete, got %s", j.Status)
	}
	if j.Type != "backtest" || j.Progress != 100 {
		t.Errorf("unexpected job %+v", j)
	}
	out, ok := j.Result.(*app.Outcome)
	if !ok || out.Result.Symbol != "AAPL" {
		t.Errorf("unexpected result %#v", j.Result)
	}
	if runner.backtests.Load() != 1 || runner.replays.Load() != 0 {
		t.Error("expected one plain backtest")
	}
}

func TestBacktestHandler_CreateReplay(t *testing.T) {
	runner := &fakeRunner{}
	h, jobs := newBacktestHandler(runner)

	w := postBacktest(h, `{"symbol": "AAPL", "replay": true}`)
	j := waitDone(t, jobs, jobID(t, w))
	if j.Type != "replay" {
		t.Errorf("expected replay job, got %s", j.Type)
	}
	if runner.replays.Load() != 1 {
		t.Error("expected a replay run")
	}
}

func TestBacktestHandler_Create_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		body   string
		code   string
	}{
		{"malformed json", &fakeRunner{}, `{`, "CONFIG_INVALID"},
		{"missing symbol", &fakeRunner{resolveErr: core.WrapError(core.ErrConfigMissing, nil)}, `{}`, "CONFIG_MISSING"},
		{"unknown preset", &fakeRunner{resolveErr: core.ErrStrategyNotFound}, `{"symbol":"AAPL","preset":"x"}`, "STRATEGY_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, jobs := newBacktestHandler(tt.runner)
			w := postBacktest(h, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			var resp response.ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, resp.Error.Code)
			}
			if len(jobs.List()) != 0 {
				t.Error("no job should be queued")
			}
		})
	}
}

func TestBacktestHandler_Failed(t *testing.T) {
	runner := &fakeRunner{runErr: core.WrapError(core.ErrBacktestFailed, fmt.Errorf("fetching ZZZZ: %w", core.ErrSymbolNotFound))}
	h, jobs := newBacktestHandler(runner)

	id := jobID(t, postBacktest(h, `{"symbol": "ZZZZ"}`))
	waitDone(t, jobs, id)

	req := httptest.NewRequest("GET", "/api/jobs/"+id, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if data["status"] != "failed" {
		t.Errorf("expected failed, got %v", data["status"])
	}
	detail := data["error"].(map[string]any)
	if detail["code"] != "BACKTEST_FAILED" {
		t.Errorf("expected BACKTEST_FAILED, got %v", detail["code"])
	}
	if _, ok := data["result"]; ok {
		t.Error("failed job should have no result")
	}
}

func TestBacktestHandler_GetNotFound(t *testing.T) {
	h, _ := newBacktestHandler(&fakeRunner{})

	req := httptest.NewRequest("GET", "/api/jobs/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	var resp response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "JOB_NOT_FOUND" {
		t.Errorf("expected JOB_NOT_FOUND, got %s", resp.Error.Code)
	}
}

func TestBacktestHandler_List(t *testing.T) {
	h, jobs := newBacktestHandler(&fakeRunner{})
	id := jobID(t, postBacktest(h, `{"symbol": "AAPL"}`))
	waitDone(t, jobs, id)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/jobs", nil))

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if data["total"] != float64(1) {
		t.Errorf("expected 1 job, got %v", data["total"])
	}
	listed := data["jobs"].([]any)[0].(map[string]any)
	if _, ok := listed["result"]; ok {
		t.Error("list should omit results")
	}
}
