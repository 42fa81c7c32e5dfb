package ports

import (
	"context"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// BadgeRepository defines persistence operations for issued badges.
type BadgeRepository interface {
	// Create inserts the badge. Unique indexes make it the concurrency guard:
	// returns domain.ErrBadgeNumberTaken on a number collision and
	// domain.ErrInvalidState when the request already has a badge.
	Create(ctx context.Context, b *domain.Badge) error
	FindByID(ctx context.Context, id string) (*domain.Badge, error)
	FindByRequestID(ctx context.Context, requestID string) (*domain.Badge, error)
	// FindByRequestIDs returns badges keyed by their request ID.
	FindByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*domain.Badge, error)
	// List returns badges, newest first; empty ownerID means all.
	List(ctx context.Context, ownerID string) ([]*domain.Badge, error)
	SetArtifactPath(ctx context.Context, id, path string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// Transactor runs fn inside a single store transaction. Repository calls made
// with the ctx passed to fn take part in it; any error returned by fn aborts
// everything written.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
