package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

var fieldValidator = validator.New()

const (
	minRegisterPasswordLength = 8
	maxNameLength             = 255
)

// AuthService implements registration, login and token resolution.
type AuthService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a non-admin user and signs them in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	verr := &domain.ValidationError{}
	name := strings.TrimSpace(in.Name)
	validateName(verr, name)
	validateEmail(verr, in.Email)
	if !oneOf(in.Function, domain.StaffFunctions) {
		verr.Add("function", "function must be one of: "+strings.Join(domain.StaffFunctions, ", "))
	}
	if !oneOf(in.Service, domain.StaffServices) {
		verr.Add("service", "service must be one of: "+strings.Join(domain.StaffServices, ", "))
	}
	if len(in.Password) < minRegisterPasswordLength {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minRegisterPasswordLength))
	} else if in.Password != in.PasswordConfirmation {
		verr.Add("password", "password confirmation does not match")
	}
	if err := verr.OrNil(); err != nil {
		return "", nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        in.Email,
		Function:     in.Function,
		Service:      in.Service,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(created)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return token, created, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, domain.ErrAccountInactive
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Resolve verifies the token and reloads its user so the admin and active
// flags are always current.
func (s *AuthService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrUnauthorized
	}

	sub, _ := claims.GetSubject()
	jti, _ := claims["jti"].(string)
	exp, _ := claims.GetExpirationTime()
	if sub == "" || jti == "" || exp == nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	revoked, err := s.sessions.IsRevoked(ctx, jti)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolve token: %w", err)
	}
	if revoked {
		return domain.Identity{}, domain.ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{}, fmt.Errorf("resolve token: %w", err)
	}
	if !user.IsActive {
		return domain.Identity{}, domain.ErrAccountInactive
	}

	id := domain.IdentityOf(user)
	id.TokenID = jti
	id.TokenExpiresAt = exp.Time
	return id, nil
}

// Logout revokes the caller's token. Revocation is best-effort: a store
// failure is logged and the call still succeeds.
func (s *AuthService) Logout(ctx context.Context, id domain.Identity) error {
	if !id.Authenticated() {
		return domain.ErrUnauthorized
	}
	if id.TokenID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, id.TokenID, id.TokenExpiresAt); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id.UserID).Msg("failed to revoke token")
	}
	return nil
}

// Me returns the caller's own user record.
func (s *AuthService) Me(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.users.FindByID(ctx, id.UserID)
}

// EnsureAdmin creates an active administrator with the given email unless a
// user with that email already exists. It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		Function:     "Security Manager",
		Service:      "Operations",
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info().Str("user_id", created.ID).Str("email", email).Msg("bootstrap admin created")
	return true, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"jti":      uuid.NewString(),
		"is_admin": user.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func validateName(verr *domain.ValidationError, name string) {
	switch {
	case name == "":
		verr.Add("name", "name is required")
	case len([]rune(name)) > maxNameLength:
		verr.Add("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
}

func validateEmail(verr *domain.ValidationError, email string) {
	if email == "" {
		verr.Add("email", "email is required")
		return
	}
	if fieldValidator.Var(email, "email") != nil {
		verr.Add("email", "email must be a valid email")
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
