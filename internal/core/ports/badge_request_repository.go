package ports

import (
	"context"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// ListBadgeRequestsFilter carries query parameters for listing requests.
// OwnerID is always set by the service layer from the access-control scope.
type ListBadgeRequestsFilter struct {
	OwnerID string               // empty = no filter (admin); non-empty = scoped to owner
	Status  domain.RequestStatus // optional
}

// BadgeRequestRepository defines persistence operations for badge requests.
type BadgeRequestRepository interface {
	Create(ctx context.Context, r *domain.BadgeRequest) error
	FindByID(ctx context.Context, id string) (*domain.BadgeRequest, error)
	// List returns matching requests, newest first.
	List(ctx context.Context, filter ListBadgeRequestsFilter) ([]*domain.BadgeRequest, error)
	// UpdateStatus persists status, admin_comment and processed_at, but only
	// if the stored status still equals from. Returns domain.ErrInvalidState
	// when another writer got there first.
	UpdateStatus(ctx context.Context, r *domain.BadgeRequest, from domain.RequestStatus) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}
