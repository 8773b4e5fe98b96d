// internal/common/auth/token.go
package auth

import (
	"errors"
	"strings"
	"time"

	apperrors "gradabroad-workers/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing = errors.New("access token missing")
	ErrTokenExpired = errors.New("access token expired")
)

// TokenInfo is what the workers can learn from a token without verifying
// it. Verification is the backend's job.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	Opaque    bool
}

// TokenChecker checks that a bearer token is present and not yet expired.
type TokenChecker struct {
	parser *jwt.Parser
	leeway time.Duration
	now    func() time.Time
}

func NewTokenChecker(leeway time.Duration) *TokenChecker {
	return &TokenChecker{
		parser: jwt.NewParser(),
		leeway: leeway,
		now:    time.Now,
	}
}

// Check returns ErrTokenMissing for an empty token and ErrTokenExpired for a
// JWT whose exp claim has passed. Tokens that are not JWTs are passed
// through as opaque.
func (c *TokenChecker) Check(token string) (*TokenInfo, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := c.parser.ParseUnverified(token, claims); err != nil {
		return &TokenInfo{Opaque: true}, nil
	}

	info := &TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
		if c.now().After(info.ExpiresAt.Add(c.leeway)) {
			return info, ErrTokenExpired
		}
	}
	return info, nil
}

// Require checks raw and returns the bare token. Failures are worker
// errors: TOKEN_MISSING or TOKEN_EXPIRED, neither retried. A nil checker
// only checks presence.
func (c *TokenChecker) Require(raw string) (string, error) {
	token := StripBearer(raw)
	if token == "" {
		return "", apperrors.NewTokenMissingError()
	}
	if c == nil {
		return token, nil
	}
	if _, err := c.Check(token); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return "", apperrors.NewTokenExpiredError(err)
		}
		return "", apperrors.NewTokenMissingError()
	}
	return token, nil
}

// StripBearer removes an optional "Bearer " prefix and surrounding space.
func StripBearer(token string) string {
	token = strings.TrimSpace(token)
	if strings.EqualFold(token, "bearer") {
		return ""
	}
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
