package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService defines the interface for issuing and validating the JWTs
// that authenticate operators against the admin routes.
type TokenService interface {
	// GenerateTokens creates a new access token and refresh token for an operator.
	GenerateTokens(operatorID string, roles []string) (accessToken string, refreshToken string, err error)

	// ValidateToken checks the validity of a token string against a secret.
	ValidateToken(tokenString string, secret string) (*jwt.Token, error)

	// GetRefreshTokenDuration returns the configured refresh token lifetime.
	GetRefreshTokenDuration() time.Duration
}
