package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThomasGit2000/trading-bot/internal/api/response"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/snapshot"
)

// StateHandler serves the latest simulation snapshot.
type StateHandler struct {
	hub *snapshot.Hub
}

// NewStateHandler creates a new state handler.
func NewStateHandler(hub *snapshot.Hub) *StateHandler {
	return &StateHandler{hub: hub}
}

// Latest returns the newest snapshot, or 404 before anything was published.
func (h *StateHandler) Latest(w http.ResponseWriter, r *http.Request) {
	s, ok := h.hub.Latest()
	if !ok {
		response.Error(w, http.StatusNotFound,
			core.WrapError(core.ErrNoData, fmt.Errorf("no simulation has published state yet")))
		return
	}
	response.JSON(w, http.StatusOK, s)
}

// Stream sends snapshots as server-sent events until the client leaves.
// A slow client skips intermediate snapshots.
func (h *StateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError,
			fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for s := range h.hub.Subscribe(r.Context()) {
		data, err := json.Marshal(s)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
