package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for issuing and validating JWT tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates an access token string and extracts its claims.
	// Returns an error if validation fails (expired, invalid signature, wrong
	// token type, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the given user.
	// Refresh tokens have a longer lifetime and are exchanged for new access
	// tokens.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshToken validates a refresh token string and extracts its
	// claims. Returns an error if validation fails.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded content of a token issued by this service.
type Claims struct {
	// UserID is the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is "access" or "refresh". Validation rejects tokens
	// presented in the wrong context.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
