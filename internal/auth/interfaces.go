package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finpilot/finpilot-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository defines the persistence operations the auth service needs.
// The bun-backed user.Repository is the production implementation; tests use
// an in-memory fake.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ListAll(ctx context.Context) ([]*user.User, error)
}

// RateLimiter defines the per-IP rate limiting operations used by the
// HTTP handlers.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}
