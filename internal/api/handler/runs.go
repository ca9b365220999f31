package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ThomasGit2000/trading-bot/internal/api/response"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/storage/results"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
)

// RunsHandler lists persisted runs and the available presets.
type RunsHandler struct {
	store   results.Store
	presets *strategy.Presets
}

// NewRunsHandler creates a runs handler. store may be nil when run
// persistence is disabled.
func NewRunsHandler(store results.Store, presets *strategy.Presets) *RunsHandler {
	return &RunsHandler{store: store, presets: presets}
}

func (h *RunsHandler) storeOrError(w http.ResponseWriter) bool {
	if h.store == nil {
		response.Error(w, http.StatusNotFound,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("run persistence is disabled")))
		return false
	}
	return true
}

// List returns run summaries, newest first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.storeOrError(w) {
		return
	}
	q := r.URL.Query()

	filter := results.Filter{Symbol: strings.ToUpper(q.Get("symbol"))}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrConfigInvalid, fmt.Errorf("limit must be a non-negative integer")))
			return
		}
		filter.Limit = n
	}

	runs, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": len(runs),
	})
}

// Get returns one run summary.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.storeOrError(w) {
		return
	}
	rec, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

// PresetView is a preset with its label.
type PresetView struct {
	Name   string          `json:"name"`
	Label  string          `json:"label"`
	Config strategy.Config `json:"config"`
}

// Presets lists the strategy presets in name order.
func (h *RunsHandler) Presets(w http.ResponseWriter, r *http.Request) {
	names := h.presets.Names()
	views := make([]PresetView, 0, len(names))
	for _, name := range names {
		cfg, ok := h.presets.Get(name)
		if !ok {
			continue
		}
		views = append(views, PresetView{Name: name, Label: cfg.Label(), Config: cfg})
	}
	response.JSON(w, http.StatusOK, map[string]any{"presets": views})
}
