// Package batches serves the batch reveal dialog of the dashboard.
package batches

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/devnet-dashboard-backend/api"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/ruteri/devnet-dashboard-backend/reveal"
)

const maxRequestSize = 4096

type Handler struct {
	revealer interfaces.Revealer
	notifier interfaces.Notifier
	log      *slog.Logger
}

func NewHandler(revealer interfaces.Revealer, notifier interfaces.Notifier, log *slog.Logger) *Handler {
	return &Handler{
		revealer: revealer,
		notifier: notifier,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/batches/{batch_id}/reveal", h.HandleReveal)
}

// HandleReveal submits the reveal dialog of a batch.
//
// URL format: POST /api/batches/{batch_id}/reveal
// Request body: {"password": "...", "name": "placeholder name"}
//
// Response: RevealBatchResponse with status 200 when revealed, 400 when the
// password is missing and 502 when the reveal failed.
func (h *Handler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	var req api.RevealBatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&req); err != nil {
		http.Error(w, fmt.Errorf("invalid request body: %w", err).Error(), http.StatusBadRequest)
		return
	}

	batch := interfaces.BatchToReveal{
		BatchID:             r.PathValue("batch_id"),
		PlaceholderMetadata: interfaces.BatchMetadata{Name: req.Name},
	}
	modal := reveal.NewModal(api.UserFromRequest(r), batch, h.revealer, h.notifier, h.log)
	modal.Open()

	err := modal.Submit(r.Context(), req.Password)

	resp := api.RevealBatchResponse{
		Title: modal.Title(),
		Open:  modal.IsOpen(),
	}
	status := http.StatusOK
	switch {
	case errors.Is(err, reveal.ErrPasswordRequired):
		resp.FieldError = modal.FieldError().Error()
		status = http.StatusBadRequest
	case err != nil:
		resp.Error = err.Error()
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
