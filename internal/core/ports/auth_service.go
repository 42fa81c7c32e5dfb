package ports

import (
	"context"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

// RegisterInput carries the fields of a public registration.
type RegisterInput struct {
	Name                 string
	Email                string
	Function             string
	Service              string
	Password             string
	PasswordConfirmation string
}

// AuthService issues, resolves and revokes session credentials.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Resolve maps a bearer token to the current identity of its user.
	Resolve(ctx context.Context, token string) (domain.Identity, error)
	Logout(ctx context.Context, id domain.Identity) error
	Me(ctx context.Context, id domain.Identity) (*domain.User, error)
}
