package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every verification failure.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken wraps ErrInvalidToken when exp has passed.
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrInvalidToken)
)

// Claims identifies the user a token was issued to.
type Claims struct {
	OwnerID   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	OwnerID  string `json:"ownerId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens. It is safe for
// concurrent use; the secret and TTL never change after construction.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	timeFunc func() time.Time
}

// NewTokenService creates a TokenService signing with secret. Tokens from
// Issue expire after ttl.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &TokenService{
		secret:   key,
		ttl:      ttl,
		timeFunc: time.Now,
	}, nil
}

// TTL returns the lifetime applied by Issue.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for claims using the configured TTL.
func (s *TokenService) Issue(ctx context.Context, claims Claims) (string, error) {
	return s.IssueWithTTL(ctx, claims, s.ttl)
}

// IssueWithTTL signs a token for claims that expires ttl from now. A ttl of
// zero or less yields a token that is already expired.
func (s *TokenService) IssueWithTTL(_ context.Context, claims Claims, ttl time.Duration) (string, error) {
	now := s.timeFunc()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		OwnerID:  claims.OwnerID,
		Username: claims.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// claims. Any failure wraps ErrInvalidToken.
func (s *TokenService) Verify(_ context.Context, tokenString string) (*Claims, error) {
	parsed := &tokenClaims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		parsed,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.timeFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || parsed.OwnerID == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		OwnerID:   parsed.OwnerID,
		Username:  parsed.Username,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}
