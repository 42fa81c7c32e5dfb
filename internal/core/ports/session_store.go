package ports

import (
	"context"
	"time"
)

// SessionStore remembers revoked token IDs until the token would expire anyway.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
