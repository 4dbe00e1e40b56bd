package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"minty/internal/export"
	"minty/internal/ledger"
	id "minty/pkg/domain"
	"minty/pkg/requestcontext"
)

func TestHandleExport(t *testing.T) {
	userID := id.UserID(uuid.New())
	store := ledger.NewMemoryStore(ledger.DomainTransactions)
	if err := store.Put(context.Background(), ledger.Item{
		ID:        id.NewItemID(),
		UserID:    userID,
		Domain:    ledger.DomainTransactions,
		Label:     "groceries",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	svc := export.New([]export.DomainSource{ledger.NewAdapter(ledger.DomainTransactions, store)})

	router := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/me/export", nil)
	req = req.WithContext(requestcontext.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got == "" {
		t.Fatalf("expected a download disposition header")
	}

	var document struct {
		UserID  string                   `json:"user_id"`
		Domains map[string][]ledger.Item `json:"domains"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&document); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if document.UserID != userID.String() {
		t.Fatalf("expected document for %s, got %s", userID, document.UserID)
	}
	if len(document.Domains["transactions"]) != 1 {
		t.Fatalf("expected one transaction in the export, got %+v", document.Domains)
	}
}

func TestHandleExport_SourceFailure(t *testing.T) {
	svc := export.New([]export.DomainSource{ledger.NewUnavailableAdapter(ledger.DomainGoals)})

	router := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/me/export", nil)
	req = req.WithContext(requestcontext.WithUserID(req.Context(), id.UserID(uuid.New())))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
