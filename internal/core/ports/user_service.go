package ports

import (
	"context"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// CreateUserInput carries the fields an admin may set on a new user.
type CreateUserInput struct {
	Name     string
	Email    string
	Function string
	Service  string
	Password string
	IsActive *bool
	IsAdmin  *bool
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Function *string
	Service  *string
	Password *string
	IsActive *bool
	IsAdmin  *bool
}

// UserService defines the user directory use cases. Every call is made on
// behalf of caller and authorized through the access-control gate.
type UserService interface {
	List(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	Create(ctx context.Context, caller domain.Identity, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, caller domain.Identity, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	ToggleAdmin(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
}
