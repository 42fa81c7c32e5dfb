package ports

import (
	"context"
	"io"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// IssueBadgeInput names the approved request and the number to print.
// An empty BadgeNumber asks the service to generate one.
type IssueBadgeInput struct {
	BadgeRequestID string
	BadgeNumber    string
}

// BadgeArtifact is an open rendered document ready to stream.
type BadgeArtifact struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// BadgeService defines badge issuance and retrieval use cases.
type BadgeService interface {
	Issue(ctx context.Context, caller domain.Identity, in IssueBadgeInput) (*domain.Badge, error)
	List(ctx context.Context, caller domain.Identity) ([]*domain.Badge, error)
	Download(ctx context.Context, caller domain.Identity, id string) (*BadgeArtifact, error)
}
