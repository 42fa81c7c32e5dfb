package ports

import (
	"context"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// UserRepository defines persistence operations for staff users.
type UserRepository interface {
	// Create inserts the user and returns it with its assigned ID.
	// Returns domain.ErrEmailTaken when the email is already used.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update replaces the mutable fields of the user identified by user.ID.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	// CountActiveAdmins is used to protect the last administrator.
	CountActiveAdmins(ctx context.Context) (int64, error)
	// LockAdminRoster takes a write on state shared by every admin change, so
	// two transactions that both count admins cannot both commit.
	LockAdminRoster(ctx context.Context) error
}
