package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"case-server/internal/domain"
	"case-server/internal/repository"
)

// SessionService issues, validates, and revokes login sessions. The token
// handed to clients is a signed JWT whose jti references a server-side
// session row, so Revoke takes effect immediately even before the token's
// own expiry.
type SessionService interface {
	Issue(ctx context.Context, userID int64) (string, error)
	// Validate resolves the current principal for a request. Any failure
	// (malformed, unknown, expired, revoked) reports not-logged-in rather
	// than an error.
	Validate(ctx context.Context, token string) (int64, bool)
	Revoke(ctx context.Context, token string) error
}

type sessionService struct {
	sessions repository.SessionRepository
	secret   []byte
	ttl      time.Duration
}

func NewSessionService(sessions repository.SessionRepository, secret string, ttl time.Duration) SessionService {
	return &sessionService{
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
	}
}

func (s *sessionService) Issue(ctx context.Context, userID int64) (string, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (s *sessionService) Validate(ctx context.Context, token string) (int64, bool) {
	claims, ok := s.parse(token)
	if !ok {
		return 0, false
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return 0, false
	}
	if session.Expired(time.Now().UTC()) {
		// prune lazily; the next Get for this id would fail anyway
		_ = s.sessions.Delete(ctx, session.ID)
		return 0, false
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID != session.UserID {
		return 0, false
	}
	return userID, true
}

func (s *sessionService) Revoke(ctx context.Context, token string) error {
	claims, ok := s.parse(token)
	if !ok {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

func (s *sessionService) parse(token string) (*jwt.RegisteredClaims, bool) {
	if token == "" {
		return nil, false
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, false
	}
	return &claims, true
}
