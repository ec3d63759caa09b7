// Package auth issues and verifies admin session tokens.
//
// A session is an HS256 JWT carried in an http-only cookie. Logging out revokes
// the token id until the token would have expired anyway, so a copied cookie
// stops working immediately.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Sessions struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationStore
	now         func() time.Time
}

func NewSessions(secret string, ttl time.Duration, revocations RevocationStore) *Sessions {
	return &Sessions{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		now:         time.Now,
	}
}

// Issue signs a new session token for the admin and returns it with its expiry.
func (s *Sessions) Issue(admin *domain.Admin) (string, time.Time, error) {
	now := s.now()
	expiration := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	})

	ss, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return ss, expiration, nil
}

// Parse validates the token signature, lifetime and revocation state.
func (s *Sessions) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// VerifyAdmin reports whether the token belongs to a live admin session. Any
// failure, including an unreachable revocation store, counts as "no".
func (s *Sessions) VerifyAdmin(ctx context.Context, tokenString string) bool {
	_, err := s.Parse(ctx, tokenString)
	return err == nil
}

// Revoke ends the session of the given token. Invalid tokens are ignored.
func (s *Sessions) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.Parse(ctx, tokenString)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}

	if s.revocations == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	return s.revocations.Revoke(ctx, claims.ID, ttl)
}
