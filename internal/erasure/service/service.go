// Package service implements the account-erasure orchestrator: a
// single-flight, five-phase workflow that exports the user's data, fans out
// deletion over every financial domain, revokes the authentication identity,
// verifies the result, and finalizes with a durable record and cache purge.
//
// Failure handling is deliberately asymmetric. An export failure is recorded
// as an error and fails the run; everything downstream of export records
// warnings and the run keeps going, because a partially erased account must
// still be erased as far as possible.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"minty/internal/audit"
	"minty/internal/erasure/metrics"
	"minty/internal/erasure/models"
	id "minty/pkg/domain"
	dErrors "minty/pkg/domain-errors"
	"minty/pkg/requestcontext"
)

// Admission errors. Both are raised before the run has any side effect.
var (
	ErrNotAuthenticated  = dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	ErrAlreadyInProgress = dErrors.New(dErrors.CodeConflict, "account deletion already in progress")
)

const (
	stateIdle int32 = iota
	stateRunning
)

// Service runs the erasure workflow. One run at a time, guarded by a
// compare-and-swap on the state cell; concurrent Initiate calls lose the swap
// and are rejected without side effects.
type Service struct {
	adapters  []DomainAdapter
	exporter  Exporter
	identity  IdentityRevoker
	namespace LocalNamespace
	purger    CachePurger
	records   RecordStore
	history   HistoryStore

	state          atomic.Int32
	clock          func() time.Time
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs the orchestrator. Adapters are driven in the order given;
// pass them in ledger.Domains() order for deterministic results.
func New(
	adapters []DomainAdapter,
	exporter Exporter,
	identity IdentityRevoker,
	namespace LocalNamespace,
	purger CachePurger,
	records RecordStore,
	history HistoryStore,
	opts ...Option,
) *Service {
	s := &Service{
		adapters:  adapters,
		exporter:  exporter,
		identity:  identity,
		namespace: namespace,
		purger:    purger,
		records:   records,
		history:   history,
		clock:     time.Now,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer("minty/erasure"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate admits and runs a full erasure for the authenticated user, then
// returns the sealed result. Admission checks run in order: an
// unauthenticated caller gets ErrNotAuthenticated, a second concurrent caller
// gets ErrAlreadyInProgress, and neither leaves any trace in history.
//
// Past admission Initiate always returns a sealed result, even when every
// phase fails or one of them panics.
func (s *Service) Initiate(ctx context.Context) (*models.DeletionResult, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		s.countRejection("not_authenticated")
		return nil, ErrNotAuthenticated
	}
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		s.countRejection("already_in_progress")
		return nil, ErrAlreadyInProgress
	}
	defer s.state.Store(stateIdle)

	// Admission time comes from the request when the middleware stamped one,
	// so the result's start lines up with the access log.
	startedAt := requestcontext.Now(ctx)
	contact, err := s.identity.Contact(ctx, userID)
	if err != nil {
		contact = ""
	}
	result := models.NewDeletionResult(userID, contact, startedAt)
	if s.metrics != nil {
		s.metrics.RunsStarted.Inc()
	}
	s.logAudit(ctx, audit.EventErasureInitiated, "initiated", result, nil)

	s.runPhases(ctx, result)

	endedAt := s.clock()
	result.Seal(endedAt)
	s.history.Append(*result)
	if s.metrics != nil {
		s.metrics.ObserveRun(result.Success, float64(result.Duration.Milliseconds()))
	}

	event := audit.EventErasureCompleted
	stage := "completed"
	if !result.Success {
		event = audit.EventErasureFailed
		stage = "failed"
	}
	s.logAudit(ctx, event, stage, result, map[string]any{
		"duration_ms":  result.Duration.Milliseconds(),
		"errors":       len(result.Errors),
		"warnings":     len(result.Warnings),
		"auth_deleted": result.AuthDeleted,
	})
	return result, nil
}

// Status returns the sealed result for a deletion ID.
func (s *Service) Status(deletionID id.DeletionID) (models.DeletionResult, error) {
	result, ok := s.history.FindByID(deletionID)
	if !ok {
		return models.DeletionResult{}, dErrors.New(dErrors.CodeNotFound, "deletion not found")
	}
	return result, nil
}

// History returns every sealed result in run order.
func (s *Service) History() []models.DeletionResult {
	return s.history.List()
}

// InProgress reports whether a run currently holds the single-flight lock.
func (s *Service) InProgress() bool {
	return s.state.Load() == stateRunning
}

type phaseFunc func(ctx context.Context, result *models.DeletionResult, step *models.StepRecord)

// runPhases executes every phase in the fixed order. A panic anywhere inside
// a phase aborts the remaining phases, records a single error, and marks the
// in-flight step failed; the caller still seals and records the result.
func (s *Service) runPhases(ctx context.Context, result *models.DeletionResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result.AddError(fmt.Sprintf("erasure aborted: %v", rec))
			if n := len(result.Steps); n > 0 && result.Steps[n-1].Status == models.StepRunning {
				result.Steps[n-1].Status = models.StepFailed
				result.Steps[n-1].EndedAt = s.clock()
			}
			s.logger.ErrorContext(ctx, "erasure run panicked",
				"deletion_id", result.ID.String(),
				"panic", fmt.Sprint(rec),
			)
		}
	}()

	phases := []struct {
		phase models.Phase
		run   phaseFunc
	}{
		{models.PhaseExport, s.runExport},
		{models.PhaseDomains, s.runDomainDeletion},
		{models.PhaseIdentity, s.runIdentityRevocation},
		{models.PhaseVerification, s.runVerification},
		{models.PhaseFinalization, s.runFinalization},
	}
	for _, p := range phases {
		s.runPhase(ctx, result, p.phase, p.run)
	}
}

func (s *Service) runPhase(ctx context.Context, result *models.DeletionResult, phase models.Phase, run phaseFunc) {
	ctx, span := s.tracer.Start(ctx, "erasure."+string(phase),
		trace.WithAttributes(attribute.String("deletion_id", result.ID.String())),
	)
	defer span.End()

	step := result.BeginStep(phase, s.clock())
	run(ctx, result, step)
	if step.Status == models.StepRunning {
		step.Status = models.StepCompleted
	}
	step.EndedAt = s.clock()

	s.logger.InfoContext(ctx, "erasure phase finished",
		"deletion_id", result.ID.String(),
		"phase", string(phase),
		"status", string(step.Status),
	)
}

func (s *Service) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.RunsRejected.WithLabelValues(reason).Inc()
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, stage string, result *models.DeletionResult, detail map[string]any) {
	s.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"stage", stage,
		"deletion_id", result.ID.String(),
		"user_id", result.UserID.String(),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	if detail == nil {
		detail = map[string]any{}
	}
	detail["deletion_id"] = result.ID.String()
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		detail["user_agent"] = ua
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:    result.UserID.String(),
		Action:    string(event),
		Stage:     stage,
		Severity:  audit.SeverityCritical,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.DeviceName(ctx),
		Detail:    detail,
	})
}
