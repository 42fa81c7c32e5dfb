package ports

import (
	"context"
	"time"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// CreateBadgeRequestInput is the DTO passed from the transport layer.
type CreateBadgeRequestInput struct {
	Type           string
	RequestReason  string
	RequestedZones []string
	ValidFrom      time.Time
	ValidUntil     *time.Time
}

// UpdateStatusInput carries an admin decision on a request.
type UpdateStatusInput struct {
	Status       string
	AdminComment *string
}

// ListBadgeRequestsInput carries optional list filters.
type ListBadgeRequestsInput struct {
	Status string
}

// BadgeRequestView is a request together with the badge issued for it, if any.
type BadgeRequestView struct {
	Request *domain.BadgeRequest
	Badge   *domain.Badge
}

// BadgeRequestService defines the badge request lifecycle use cases.
type BadgeRequestService interface {
	Create(ctx context.Context, caller domain.Identity, in CreateBadgeRequestInput) (*domain.BadgeRequest, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*BadgeRequestView, error)
	List(ctx context.Context, caller domain.Identity, in ListBadgeRequestsInput) ([]BadgeRequestView, error)
	// AwaitingBadge lists approved requests with no badge issued yet.
	AwaitingBadge(ctx context.Context, caller domain.Identity) ([]*domain.BadgeRequest, error)
	UpdateStatus(ctx context.Context, caller domain.Identity, id string, in UpdateStatusInput) (*domain.BadgeRequest, error)
}
