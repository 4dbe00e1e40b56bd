// Package export produces the full-account data export artifact. The erasure
// workflow creates one before any destructive phase runs; users can also
// request one on its own.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"minty/internal/ledger"
	id "minty/pkg/domain"
)

// Artifact describes one produced export.
type Artifact struct {
	Filename    string                `json:"filename"`
	Size        int64                 `json:"size"`
	DownloadRef string                `json:"download_ref"`
	ItemCounts  map[ledger.Domain]int `json:"item_counts"`
	CreatedAt   time.Time             `json:"created_at"`
}

// DomainSource lists one domain's items for a user. ledger.Adapter satisfies it.
type DomainSource interface {
	Domain() ledger.Domain
	ListForUser(ctx context.Context, userID id.UserID) ([]ledger.Item, error)
}

// Service builds export documents from the domain sources and keeps the
// rendered bytes addressable by an opaque download ref.
type Service struct {
	sources []DomainSource
	clock   func() time.Time
	logger  *slog.Logger

	mu        sync.RWMutex
	artifacts map[string][]byte
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service over the given sources.
func New(sources []DomainSource, opts ...Option) *Service {
	s := &Service{
		sources:   sources,
		clock:     time.Now,
		logger:    slog.New(slog.DiscardHandler),
		artifacts: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// document is the on-disk export shape.
type document struct {
	ExportedAt time.Time                       `json:"exported_at"`
	UserID     string                          `json:"user_id"`
	Domains    map[ledger.Domain][]ledger.Item `json:"domains"`
}

// Create snapshots every domain for the user and renders one JSON artifact.
// Domains are listed concurrently; any listing failure fails the export,
// since a partial export would silently misrepresent what the user had.
func (s *Service) Create(ctx context.Context, userID id.UserID) (*Artifact, error) {
	snapshots := make([][]ledger.Item, len(s.sources))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, source := range s.sources {
		group.Go(func() error {
			items, err := source.ListForUser(groupCtx, userID)
			if err != nil {
				return fmt.Errorf("list %s: %w", source.Domain(), err)
			}
			snapshots[i] = items
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	doc := document{
		ExportedAt: s.clock().UTC(),
		UserID:     userID.String(),
		Domains:    make(map[ledger.Domain][]ledger.Item, len(s.sources)),
	}
	counts := make(map[ledger.Domain]int, len(s.sources))
	for i, source := range s.sources {
		doc.Domains[source.Domain()] = snapshots[i]
		counts[source.Domain()] = len(snapshots[i])
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	ref := uuid.NewString()
	s.mu.Lock()
	s.artifacts[ref] = encoded
	s.mu.Unlock()

	artifact := &Artifact{
		Filename:    fmt.Sprintf("minty-export-%s.json", doc.ExportedAt.Format("20060102-150405")),
		Size:        int64(len(encoded)),
		DownloadRef: ref,
		ItemCounts:  counts,
		CreatedAt:   doc.ExportedAt,
	}
	s.logger.InfoContext(ctx, "export created",
		"user_id", userID.String(),
		"size", artifact.Size,
		"ref", ref,
	)
	return artifact, nil
}

// Fetch returns the rendered bytes for a download ref, or false when the ref
// is unknown.
func (s *Service) Fetch(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[ref]
	return data, ok
}
