package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"minty/pkg/platform/sentinel"
	pstrings "minty/pkg/platform/strings"
)

// Purger clears named ephemeral cache partitions (dashboard aggregates, chart
// series, FX rates). It keeps going past individual failures so one bad
// partition cannot leave the rest dirty, and reports the first failure.
type Purger struct {
	ns         Namespace
	partitions []string
	logger     *slog.Logger
}

// NewPurger creates a Purger over the given partition prefixes. Duplicate and
// empty prefixes are dropped.
func NewPurger(ns Namespace, partitions []string, logger *slog.Logger) *Purger {
	return &Purger{
		ns:         ns,
		partitions: pstrings.DedupeAndTrim(partitions),
		logger:     logger,
	}
}

// ClearAll removes every key under every configured partition prefix.
func (p *Purger) ClearAll(ctx context.Context) error {
	var firstErr error
	for _, partition := range p.partitions {
		keys, err := p.ns.KeysWithPrefix(ctx, partition)
		if err != nil {
			p.logger.WarnContext(ctx, "cache purge: listing partition failed",
				"partition", partition,
				"error", err,
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("list partition %s: %w", partition, err)
			}
			continue
		}
		for _, key := range keys {
			if err := p.ns.Remove(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				p.logger.WarnContext(ctx, "cache purge: removing key failed",
					"key", key,
					"error", err,
				)
				if firstErr == nil {
					firstErr = fmt.Errorf("remove %s: %w", key, err)
				}
			}
		}
	}
	return firstErr
}
