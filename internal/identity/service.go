// Package identity owns the authentication identity: user records, login
// sessions, token issuance, and the revocation semantics the account-erasure
// workflow depends on.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"minty/internal/audit"
	"minty/internal/identity/models"
	"minty/internal/identity/store/session"
	userstore "minty/internal/identity/store/user"
	"minty/pkg/attrs"
	id "minty/pkg/domain"
	dErrors "minty/pkg/domain-errors"
	"minty/pkg/platform/sentinel"
	"minty/pkg/requestcontext"
)

// ErrRequiresRecentAuth is returned by Revoke when the user's freshest
// session authenticated too long ago for a destructive identity operation.
// Callers resolve it by reauthenticating and retrying.
var ErrRequiresRecentAuth = errors.New("requires recent authentication")

// AuditPublisher is the slice of the audit pipeline this service emits to.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates identity operations over the user and session stores.
type Service struct {
	users    userstore.Store
	sessions session.Store

	recentAuthWindow time.Duration
	clock            func() time.Time
	logger           *slog.Logger
	auditPublisher   AuditPublisher
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithRecentAuthWindow overrides how fresh a session must be for Revoke.
func WithRecentAuthWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.recentAuthWindow = window
		}
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service.
func New(users userstore.Store, sessions session.Store, opts ...Option) *Service {
	s := &Service{
		users:            users,
		sessions:         sessions,
		recentAuthWindow: 5 * time.Minute,
		clock:            time.Now,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a bcrypt-hashed password and an initial
// session, returning the user and session.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	if email == "" {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "email required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := s.clock()
	user := &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}

	sess := &models.Session{
		ID:              id.SessionID(uuid.New()),
		UserID:          user.ID,
		Device:          requestcontext.DeviceName(ctx),
		CreatedAt:       now,
		AuthenticatedAt: now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	return user, sess, nil
}

// Reauthenticate verifies the user's password and refreshes the
// authenticated-at time of their sessions, opening the recent-auth window
// that Revoke requires.
func (s *Service) Reauthenticate(ctx context.Context, userID id.UserID, password string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	now := s.clock()
	for i := range sessions {
		sessions[i].AuthenticatedAt = now
		if err := s.sessions.Save(ctx, &sessions[i]); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh session")
		}
	}
	return nil
}

// Revoke permanently deletes the authentication identity and every session.
//
// Outcomes the erasure workflow classifies:
//   - sentinel.ErrNotFound: the identity is already gone
//   - ErrRequiresRecentAuth: the freshest session is older than the
//     recent-auth window; nothing was deleted
//   - any other error: the deletion could not complete
func (s *Service) Revoke(ctx context.Context, userID id.UserID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return err
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.recentlyAuthenticated(sessions) {
		return ErrRequiresRecentAuth
	}

	if err := s.users.Delete(ctx, userID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventUserDeleted, userID, "email", user.Email)
	return nil
}

// SignOut clears every session for the user without touching the identity
// record. The erasure workflow uses it as the fallback when Revoke fails.
func (s *Service) SignOut(ctx context.Context, userID id.UserID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventSessionsRevoked, userID)
	return nil
}

// IsActive reports whether the identity is still recognized, meaning the
// user record exists or any session survives.
func (s *Service) IsActive(ctx context.Context, userID id.UserID) (bool, error) {
	_, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return false, err
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(sessions) > 0, nil
}

// Contact returns the user's email address, used for the masked contact on
// deletion results. Absent users report sentinel.ErrNotFound.
func (s *Service) Contact(ctx context.Context, userID id.UserID) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (s *Service) recentlyAuthenticated(sessions []models.Session) bool {
	cutoff := s.clock().Add(-s.recentAuthWindow)
	for _, sess := range sessions {
		if sess.AuthenticatedAt.After(cutoff) {
			return true
		}
	}
	return false
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, attributes ...any) {
	args := append(attributes,
		"event", string(event),
		"user_id", userID.String(),
		"log_type", "audit",
	)
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	var detail map[string]any
	if email := attrs.ExtractString(attributes, "email"); email != "" {
		detail = map[string]any{"email": email}
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:    userID.String(),
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.DeviceName(ctx),
		Detail:    detail,
	})
}
