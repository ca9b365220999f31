package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/api/job"
	"github.com/ThomasGit2000/trading-bot/internal/api/response"
	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
	"go.uber.org/zap"
)

const (
	backtestTimeout = 5 * time.Minute

	jobBacktest = "backtest"
	jobReplay   = "replay"
)

// Runner runs backtests for the API.
type Runner interface {
	Resolve(req app.RunRequest) (backtest.RunConfig, string, error)
	Backtest(ctx context.Context, req app.RunRequest) (*app.Outcome, error)
	Replay(ctx context.Context, req app.RunRequest, delay time.Duration) (*app.Outcome, error)
}

// BacktestRequest is the request body for starting a backtest. Replay
// publishes every bar to the state endpoints while the job runs.
type BacktestRequest struct {
	app.RunRequest
	Replay bool `json:"replay,omitempty"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobs        *job.Store
	runner      Runner
	metrics     *metrics.Registry
	logger      *zap.Logger
	replayDelay time.Duration
	timeout     time.Duration
}

// NewBacktestHandler creates a new backtest handler. reg may be nil.
func NewBacktestHandler(jobs *job.Store, runner Runner, reg *metrics.Registry, replayDelay time.Duration, logger *zap.Logger) *BacktestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktestHandler{
		jobs:        jobs,
		runner:      runner,
		metrics:     reg,
		logger:      logger,
		replayDelay: replayDelay,
		timeout:     backtestTimeout,
	}
}

// Create validates the request and starts a backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	// Reject bad parameters before queueing
	if _, _, err := h.runner.Resolve(req.RunRequest); err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	jobType := jobBacktest
	if req.Replay {
		jobType = jobReplay
	}
	j := h.jobs.Create(jobType)
	h.reportActive(jobType)

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.run(jobID, jobType, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// run executes the backtest and updates job status.
func (h *BacktestHandler) run(jobID, jobType string, req BacktestRequest) {
	defer h.reportActive(jobType)

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var (
		out *app.Outcome
		err error
	)
	if req.Replay {
		out, err = h.runner.Replay(ctx, req.RunRequest, h.replayDelay)
	} else {
		out, err = h.runner.Backtest(ctx, req.RunRequest)
	}

	if err != nil {
		h.logger.Warn("backtest job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = out
	})
}

func (h *BacktestHandler) reportActive(jobType string) {
	if h.metrics != nil {
		h.metrics.SetJobsActive(jobType, h.jobs.Active(jobType))
	}
}

func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return core.WrapError(core.ErrBacktestFailed, err)
}

// Get returns the status of a backtest job.
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns every known job without results.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	for i := range jobs {
		jobs[i].Result = nil
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"total": len(jobs),
	})
}
