// Package handler exposes the account-erasure workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"minty/internal/erasure/models"
	id "minty/pkg/domain"
	dErrors "minty/pkg/domain-errors"
	"minty/pkg/platform/httputil"
	"minty/pkg/requestcontext"
)

// Service defines the erasure operations the handler drives.
type Service interface {
	Initiate(ctx context.Context) (*models.DeletionResult, error)
	Status(deletionID id.DeletionID) (models.DeletionResult, error)
	History() []models.DeletionResult
	InProgress() bool
}

// Handler wires erasure endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an erasure handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts erasure endpoints on the router. All routes assume the
// authentication middleware already ran.
func (h *Handler) Register(r chi.Router) {
	r.Delete("/me", h.HandleInitiate)
	r.Get("/me/erasure", h.HandleHistory)
	r.Get("/me/erasure/active", h.HandleActive)
	r.Get("/me/erasure/{deletionID}", h.HandleStatus)
}

// HandleInitiate handles DELETE /me requests. The response carries the sealed
// run result whether or not the run succeeded; admission failures map to
// 401 and 409 envelopes.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	result, err := h.service.Initiate(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "erasure rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "erasure run sealed",
		"request_id", requestID,
		"deletion_id", result.ID.String(),
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHistory handles GET /me/erasure requests, listing the caller's sealed
// runs in run order.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	deletions := make([]models.DeletionResult, 0)
	for _, result := range h.service.History() {
		if result.UserID == userID {
			deletions = append(deletions, result)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"deletions": deletions})
}

// HandleActive handles GET /me/erasure/active requests.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{
		"in_progress": h.service.InProgress(),
	})
}

// HandleStatus handles GET /me/erasure/{deletionID} requests. Runs belonging
// to other users read as not found.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	deletionID, err := id.ParseDeletionID(chi.URLParam(r, "deletionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Status(deletionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if result.UserID != userID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "deletion not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
