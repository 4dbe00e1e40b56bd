// Package handler serves the standalone data export endpoint.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"minty/internal/export"
	id "minty/pkg/domain"
	dErrors "minty/pkg/domain-errors"
	"minty/pkg/platform/httputil"
	"minty/pkg/requestcontext"
)

// Service defines the export operations the handler drives.
type Service interface {
	Create(ctx context.Context, userID id.UserID) (*export.Artifact, error)
	Fetch(ref string) ([]byte, bool)
}

// Handler wires the export endpoint to the export service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an export handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the export endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/export", h.HandleExport)
}

// HandleExport handles GET /me/export requests: it snapshots every domain and
// streams the rendered JSON document as a download.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	artifact, err := h.service.Create(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "export failed",
			"request_id", requestID,
			"user_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "export unavailable"))
		return
	}

	document, ok := h.service.Fetch(artifact.DownloadRef)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "export artifact missing"))
		return
	}

	h.logger.InfoContext(ctx, "export served",
		"request_id", requestID,
		"user_id", userID.String(),
		"filename", artifact.Filename,
		"size_bytes", artifact.Size,
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}
