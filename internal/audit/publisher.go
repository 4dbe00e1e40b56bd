package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured audit events. Callers treat emission as
// fire-and-forget: a failing sink is logged, never propagated, so audit
// plumbing can never abort the operation being audited.
type Publisher struct {
	store  Store
	kafka  *KafkaPublisher
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(p *Publisher)

// WithKafka adds a Kafka sink alongside the store.
func WithKafka(kafka *KafkaPublisher) Option {
	return func(p *Publisher) {
		p.kafka = kafka
	}
}

// NewPublisher builds a Publisher over the given store.
func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an event to every configured sink. Always returns nil; sink
// failures are logged and swallowed.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = AuditEvent(event.Action).DefaultSeverity()
	}

	p.logger.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"severity", string(event.Severity),
		"user_id", event.UserID,
		"stage", event.Stage,
		"request_id", event.RequestID,
	)

	if p.store != nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit store append failed",
				"error", err,
				"action", event.Action,
			)
		}
	}
	if p.kafka != nil {
		if err := p.kafka.Publish(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit kafka publish failed",
				"error", err,
				"action", event.Action,
			)
		}
	}
	return nil
}
