package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"minty/internal/platform/middleware"
	id "minty/pkg/domain"
)

// TokenService issues and validates the HMAC-signed access tokens the HTTP
// layer authenticates with. It implements middleware.JWTValidator.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
}

var _ middleware.JWTValidator = (*TokenService)(nil)

// NewTokenService creates a token service with the given signing key.
func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{signingKey: []byte(signingKey), ttl: ttl}
}

type accessClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issue mints a token for the given user and session.
func (s *TokenService) Issue(userID id.UserID, sessionID id.SessionID) (string, error) {
	now := time.Now()
	claims := accessClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string.
func (s *TokenService) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session claim: %w", err)
	}

	return &middleware.JWTClaims{UserID: userID, SessionID: sessionID}, nil
}
