package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/policy"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

const minAdminPasswordLength = 6

// UserService implements the admin-only user directory.
type UserService struct {
	users     ports.UserRepository
	requests  ports.BadgeRequestRepository
	badges    ports.BadgeRepository
	artifacts ports.ArtifactStore
	tx        ports.Transactor
	gate      *policy.Gate
	logger    zerolog.Logger
	now       func() time.Time
}

func NewUserService(
	users ports.UserRepository,
	requests ports.BadgeRequestRepository,
	badges ports.BadgeRepository,
	artifacts ports.ArtifactStore,
	tx ports.Transactor,
	gate *policy.Gate,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		requests:  requests,
		badges:    badges,
		artifacts: artifacts,
		tx:        tx,
		gate:      gate,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *UserService) List(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	if err := s.gate.Authorize(caller, policy.ActionListUsers, ""); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	if err := s.gate.Authorize(caller, policy.ActionManageUsers, id); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, caller domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	if err := s.gate.Authorize(caller, policy.ActionManageUsers, ""); err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	name := strings.TrimSpace(in.Name)
	validateName(verr, name)
	validateEmail(verr, in.Email)
	if len(in.Password) < minAdminPasswordLength {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minAdminPasswordLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        in.Email,
		Function:     in.Function,
		Service:      in.Service,
		PasswordHash: hash,
		IsActive:     boolOr(in.IsActive, true),
		IsAdmin:      boolOr(in.IsAdmin, false),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("by", caller.UserID).Msg("user created")
	return created, nil
}

func (s *UserService) Update(ctx context.Context, caller domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if err := s.gate.Authorize(caller, policy.ActionManageUsers, id); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		validateName(verr, name)
		user.Name = name
	}
	if in.Email != nil {
		validateEmail(verr, *in.Email)
		user.Email = *in.Email
	}
	if in.Function != nil {
		user.Function = *in.Function
	}
	if in.Service != nil {
		user.Service = *in.Service
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < minAdminPasswordLength {
			verr.Add("password", fmt.Sprintf("password must be at least %d characters", minAdminPasswordLength))
		} else {
			hash, err := hashPassword(*in.Password)
			if err != nil {
				return nil, err
			}
			user.PasswordHash = hash
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	wasActiveAdmin := user.IsAdmin && user.IsActive
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	demoted := wasActiveAdmin && !(user.IsAdmin && user.IsActive)

	user.UpdatedAt = s.now().UTC()
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if demoted {
			if err := s.ensureNotLastAdmin(ctx); err != nil {
				return err
			}
		}
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("by", caller.UserID).Msg("user updated")
	return user, nil
}

// ToggleAdmin flips the admin flag of the user identified by id.
func (s *UserService) ToggleAdmin(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	if err := s.gate.Authorize(caller, policy.ActionToggleAdmin, id); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u.IsAdmin && u.IsActive {
			if err := s.ensureNotLastAdmin(ctx); err != nil {
				return err
			}
		}
		u.IsAdmin = !u.IsAdmin
		u.UpdatedAt = s.now().UTC()
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Bool("is_admin", user.IsAdmin).Str("by", caller.UserID).Msg("admin flag toggled")
	return user, nil
}

// Delete removes the user together with their badge requests, badges and
// rendered artifacts. Admins cannot delete themselves or the last admin.
func (s *UserService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if err := s.gate.Authorize(caller, policy.ActionManageUsers, id); err != nil {
		return err
	}
	if id == caller.UserID {
		return fmt.Errorf("%w: administrators cannot delete their own account", domain.ErrInvalidState)
	}

	var artifacts []string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if user.IsAdmin && user.IsActive {
			if err := s.ensureNotLastAdmin(ctx); err != nil {
				return err
			}
		}

		owned, err := s.badges.List(ctx, id)
		if err != nil {
			return fmt.Errorf("list badges: %w", err)
		}
		artifacts = artifacts[:0]
		for _, b := range owned {
			if b.ArtifactPath != nil {
				artifacts = append(artifacts, *b.ArtifactPath)
			}
		}
		if err := s.badges.DeleteByOwner(ctx, id); err != nil {
			return fmt.Errorf("delete badges: %w", err)
		}
		if err := s.requests.DeleteByOwner(ctx, id); err != nil {
			return fmt.Errorf("delete badge requests: %w", err)
		}
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, path := range artifacts {
		if err := s.artifacts.Delete(ctx, path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("failed to remove badge artifact")
		}
	}

	s.logger.Info().Str("user_id", id).Str("by", caller.UserID).Int("artifacts", len(artifacts)).Msg("user deleted")
	return nil
}

// ensureNotLastAdmin must run inside the transaction that removes the admin.
func (s *UserService) ensureNotLastAdmin(ctx context.Context) error {
	if err := s.users.LockAdminRoster(ctx); err != nil {
		return err
	}
	n, err := s.users.CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n <= 1 {
		return fmt.Errorf("%w: the last active administrator cannot be removed", domain.ErrInvalidState)
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// lookupErr drops not-found errors so optional lookups only fail on real errors.
func lookupErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
