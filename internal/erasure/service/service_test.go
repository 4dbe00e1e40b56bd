package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"minty/internal/audit"
	"minty/internal/cache"
	"minty/internal/erasure/models"
	"minty/internal/erasure/service/mocks"
	"minty/internal/erasure/store/history"
	"minty/internal/erasure/store/record"
	"minty/internal/export"
	"minty/internal/identity"
	"minty/internal/identity/store/session"
	userstore "minty/internal/identity/store/user"
	"minty/internal/ledger"
	id "minty/pkg/domain"
	dErrors "minty/pkg/domain-errors"
	"minty/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	ns       *cache.MemoryNamespace
	stores   map[ledger.Domain]ledger.Store
	adapters []DomainAdapter
	sources  []export.DomainSource
	users    *userstore.MemoryStore
	identity *identity.Service
	exporter *export.Service
	records  *record.MemoryStore
	history  *history.Store
	auditLog *audit.MemoryStore

	userID id.UserID
	ctx    context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ns = cache.NewMemoryNamespace()

	s.stores = map[ledger.Domain]ledger.Store{
		ledger.DomainTransactions: ledger.NewMemoryStore(ledger.DomainTransactions),
		ledger.DomainAccounts:     ledger.NewMemoryStore(ledger.DomainAccounts),
		ledger.DomainGoals:        ledger.NewMemoryStore(ledger.DomainGoals),
		ledger.DomainInvestments:  ledger.NewMemoryStore(ledger.DomainInvestments),
		ledger.DomainBudgets:      ledger.NewMemoryStore(ledger.DomainBudgets),
		ledger.DomainPreferences:  cache.NewPreferencesStore(s.ns),
	}
	s.adapters = nil
	s.sources = nil
	for _, domain := range ledger.Domains() {
		adapter := ledger.NewAdapter(domain, s.stores[domain])
		s.adapters = append(s.adapters, adapter)
		s.sources = append(s.sources, adapter)
	}

	s.users = userstore.New()
	s.identity = identity.New(s.users, session.New(s.ns))
	s.exporter = export.New(s.sources)
	s.records = record.NewMemory()
	s.history = history.New()
	s.auditLog = audit.NewMemoryStore()

	user, _, err := s.identity.Register(context.Background(), "ada@example.com", "correct-horse")
	s.Require().NoError(err)
	s.userID = user.ID
	s.ctx = requestcontext.WithUserID(context.Background(), s.userID)

	s.seed(ledger.DomainTransactions, "groceries", "rent")
	s.seed(ledger.DomainAccounts, "checking")
	s.seed(ledger.DomainGoals, "house deposit")
	s.seed(ledger.DomainInvestments, "index fund")
}

func (s *ServiceSuite) seed(domain ledger.Domain, labels ...string) {
	for _, label := range labels {
		err := s.stores[domain].Put(context.Background(), ledger.Item{
			ID:        id.NewItemID(),
			UserID:    s.userID,
			Domain:    domain,
			Label:     label,
			CreatedAt: time.Now(),
		})
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	purger := cache.NewPurger(s.ns, []string{"dashboard:", "charts:", "fx:"}, slog.New(slog.DiscardHandler))
	base := []Option{
		WithAuditPublisher(audit.NewPublisher(s.auditLog, slog.New(slog.DiscardHandler))),
	}
	return New(s.adapters, s.exporter, s.identity, s.ns, purger, s.records, s.history, append(base, opts...)...)
}

func (s *ServiceSuite) TestInitiate_FullSuccess() {
	svc := s.newService()

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)
	s.True(result.Success)
	s.True(result.AuthDeleted)
	s.Empty(result.Errors)
	s.Empty(result.Warnings)
	s.Equal("a***@example.com", result.ContactMasked)

	s.Equal(map[ledger.Domain]int{
		ledger.DomainTransactions: 2,
		ledger.DomainAccounts:     1,
		ledger.DomainGoals:        1,
		ledger.DomainInvestments:  1,
		ledger.DomainBudgets:      0,
		ledger.DomainPreferences:  0,
	}, result.DomainCounts)

	s.Require().Len(result.Steps, 5)
	for i, phase := range models.Phases() {
		s.Equal(phase, result.Steps[i].Phase)
		s.Equal(models.StepCompleted, result.Steps[i].Status)
		s.False(result.Steps[i].EndedAt.IsZero())
	}
	verify := result.StepFor(models.PhaseVerification)
	s.Require().NotNil(verify)
	s.Equal(true, verify.Detail["passed"])

	// the identity and its sessions are gone
	active, err := s.identity.IsActive(context.Background(), s.userID)
	s.Require().NoError(err)
	s.False(active)

	// the durable record survived, stripped of the subject
	rec, err := s.records.FindByDeletionID(context.Background(), result.ID)
	s.Require().NoError(err)
	s.True(rec.Success)
	s.Equal(2, rec.DomainCounts[ledger.DomainTransactions])

	s.Equal(1, s.history.Len())
	s.False(svc.InProgress())
}

func (s *ServiceSuite) TestInitiate_UnavailableDomainWarnsAndContinues() {
	for i, adapter := range s.adapters {
		if adapter.Domain() == ledger.DomainGoals {
			s.adapters[i] = ledger.NewUnavailableAdapter(ledger.DomainGoals)
		}
	}
	svc := s.newService()

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)

	s.True(result.Success, "domain failures are warnings, not errors")
	s.Empty(result.Errors)
	s.NotEmpty(result.Warnings)
	found := false
	for _, w := range result.Warnings {
		if strings.HasPrefix(w, "goals") {
			found = true
		}
	}
	s.True(found, "a warning names the failed domain: %v", result.Warnings)

	s.Equal(0, result.DomainCounts[ledger.DomainGoals])
	s.Equal(2, result.DomainCounts[ledger.DomainTransactions])
	s.Equal(1, result.DomainCounts[ledger.DomainAccounts])

	verify := result.StepFor(models.PhaseVerification)
	s.Require().NotNil(verify)
	s.Equal(false, verify.Detail["passed"])
}

func (s *ServiceSuite) TestInitiate_StaleAuthenticationKeepsIdentity() {
	sessions, err := session.New(s.ns).ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	for i := range sessions {
		sessions[i].AuthenticatedAt = time.Now().Add(-time.Hour)
		s.Require().NoError(session.New(s.ns).Save(context.Background(), &sessions[i]))
	}
	svc := s.newService()

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)

	s.True(result.Success)
	s.False(result.AuthDeleted)
	s.NotEmpty(result.Warnings)
	step := result.StepFor(models.PhaseIdentity)
	s.Require().NotNil(step)
	s.Equal("requires_recent_auth", step.Detail["outcome"])

	// identity untouched, so verification flags it
	_, err = s.users.FindByID(context.Background(), s.userID)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestInitiate_NotAuthenticated() {
	svc := s.newService()

	result, err := svc.Initiate(context.Background())
	s.Require().Error(err)
	s.Nil(result)
	s.True(errors.Is(err, ErrNotAuthenticated))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// rejected before any side effect
	s.Equal(0, s.history.Len())
	items, err := s.stores[ledger.DomainTransactions].ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *ServiceSuite) TestStatusAndHistory() {
	svc := s.newService()

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)

	got, err := svc.Status(result.ID)
	s.Require().NoError(err)
	s.Equal(result.ID, got.ID)
	s.True(got.Success)

	_, err = svc.Status(id.DeletionID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().Len(svc.History(), 1)
}

func (s *ServiceSuite) TestInitiate_EmitsAuditEvents() {
	svc := s.newService()
	ctx := requestcontext.WithClientMetadata(s.ctx, "203.0.113.7", "minty-cli/1.0", "CLI")

	_, err := svc.Initiate(ctx)
	s.Require().NoError(err)

	actions := make([]string, 0)
	for _, event := range s.auditLog.All() {
		if event.UserID != s.userID.String() {
			continue
		}
		actions = append(actions, event.Action)
		if event.Action == string(audit.EventErasureInitiated) {
			s.Equal("minty-cli/1.0", event.Detail["user_agent"])
			s.Equal("203.0.113.7", event.ClientIP)
		}
	}
	s.Contains(actions, string(audit.EventErasureInitiated))
	s.Contains(actions, string(audit.EventErasureCompleted))
	s.NotContains(actions, string(audit.EventErasureFailed))
}

func (s *ServiceSuite) TestInitiate_StartsAtRequestTime() {
	svc := s.newService()
	stamped := time.Now().Add(-250 * time.Millisecond).Truncate(time.Millisecond)
	ctx := requestcontext.WithTime(s.ctx, stamped)

	result, err := svc.Initiate(ctx)
	s.Require().NoError(err)
	s.True(result.StartedAt.Equal(stamped), "the run starts at the middleware-stamped time")
	s.GreaterOrEqual(result.Duration, 250*time.Millisecond)
}

func (s *ServiceSuite) TestInitiate_ExportFailureFailsRunButFinishes() {
	ctrl := gomock.NewController(s.T())
	exporter := mocks.NewMockExporter(ctrl)
	exporter.EXPECT().Create(gomock.Any(), s.userID).Return(nil, errors.New("disk full"))

	purger := cache.NewPurger(s.ns, []string{"dashboard:"}, slog.New(slog.DiscardHandler))
	svc := New(s.adapters, exporter, s.identity, s.ns, purger, s.records, s.history,
		WithAuditPublisher(audit.NewPublisher(s.auditLog, slog.New(slog.DiscardHandler))))

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)

	s.False(result.Success)
	s.Require().Len(result.Errors, 1)
	s.Contains(result.Errors[0], "export failed")

	// deletion still ran to completion
	s.Len(result.Steps, 5)
	s.Equal(models.StepFailed, result.StepFor(models.PhaseExport).Status)
	s.Equal(2, result.DomainCounts[ledger.DomainTransactions])
	s.True(result.AuthDeleted)

	rec, recErr := s.records.FindByDeletionID(context.Background(), result.ID)
	s.Require().NoError(recErr)
	s.False(rec.Success)

	actions := make([]string, 0)
	for _, event := range s.auditLog.All() {
		actions = append(actions, event.Action)
	}
	s.Contains(actions, string(audit.EventErasureFailed))
}

func (s *ServiceSuite) TestInitiate_IdentityUnreachableWarnsAndSignsOut() {
	ctrl := gomock.NewController(s.T())
	revoker := mocks.NewMockIdentityRevoker(ctrl)
	revoker.EXPECT().Contact(gomock.Any(), s.userID).Return("ada@example.com", nil)
	revoker.EXPECT().Revoke(gomock.Any(), s.userID).Return(errors.New("connection refused"))
	revoker.EXPECT().SignOut(gomock.Any(), s.userID).Return(nil)
	revoker.EXPECT().IsActive(gomock.Any(), s.userID).Return(false, errors.New("connection refused"))

	purger := cache.NewPurger(s.ns, []string{"dashboard:"}, slog.New(slog.DiscardHandler))
	svc := New(s.adapters, s.exporter, revoker, s.ns, purger, s.records, s.history)

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)

	s.True(result.Success, "an unreachable identity service degrades to a warning")
	s.False(result.AuthDeleted)
	s.NotEmpty(result.Warnings)
	step := result.StepFor(models.PhaseIdentity)
	s.Require().NotNil(step)
	s.Equal("failed", step.Detail["outcome"])
	s.Equal(true, step.Detail["fallback_sign_out"])
}

func (s *ServiceSuite) TestInitiate_PanicSealsFailedResultAndReleasesLock() {
	ctrl := gomock.NewController(s.T())
	exporter := mocks.NewMockExporter(ctrl)
	exporter.EXPECT().Create(gomock.Any(), s.userID).DoAndReturn(
		func(context.Context, id.UserID) (*export.Artifact, error) {
			panic("serializer blew up")
		})

	purger := cache.NewPurger(s.ns, []string{"dashboard:"}, slog.New(slog.DiscardHandler))
	svc := New(s.adapters, exporter, s.identity, s.ns, purger, s.records, s.history)

	result, err := svc.Initiate(s.ctx)
	s.Require().NoError(err)

	s.False(result.Success)
	s.Require().Len(result.Errors, 1)
	s.Contains(result.Errors[0], "serializer blew up")
	s.Require().Len(result.Steps, 1, "phases after the panic never ran")
	s.Equal(models.StepFailed, result.Steps[0].Status)

	s.Equal(1, s.history.Len())
	s.False(svc.InProgress(), "the panic released the single-flight lock")

	// a follow-up run is admitted
	svc2 := s.newService()
	result2, err := svc2.Initiate(s.ctx)
	s.Require().NoError(err)
	s.True(result2.Success)
}

func (s *ServiceSuite) TestInitiate_SingleFlight() {
	ctrl := gomock.NewController(s.T())
	gate := make(chan struct{})
	entered := make(chan struct{})
	exporter := mocks.NewMockExporter(ctrl)
	exporter.EXPECT().Create(gomock.Any(), s.userID).DoAndReturn(
		func(ctx context.Context, userID id.UserID) (*export.Artifact, error) {
			close(entered)
			<-gate
			return s.exporter.Create(ctx, userID)
		})

	purger := cache.NewPurger(s.ns, []string{"dashboard:"}, slog.New(slog.DiscardHandler))
	svc := New(s.adapters, exporter, s.identity, s.ns, purger, s.records, s.history)

	done := make(chan *models.DeletionResult, 1)
	go func() {
		result, err := svc.Initiate(s.ctx)
		s.NoError(err)
		done <- result
	}()

	<-entered
	s.True(svc.InProgress())

	_, err := svc.Initiate(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrAlreadyInProgress))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	close(gate)
	result := <-done
	s.Require().NotNil(result)
	s.True(result.Success)
	s.Equal(1, s.history.Len(), "only the winning call left a run behind")
	s.False(svc.InProgress())
}
