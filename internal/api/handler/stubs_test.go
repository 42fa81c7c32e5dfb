package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/api/middleware"
	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

var (
	staff = domain.Identity{UserID: "u-staff", Name: "Sam", Email: "sam@airport.test"}
	admin = domain.Identity{UserID: "u-admin", Name: "Ada", Email: "ada@airport.test", IsAdmin: true}
)

// identityResolver maps the bearer token "<user id>" to a fixed identity.
type identityResolver map[string]domain.Identity

func (r identityResolver) Resolve(_ context.Context, token string) (domain.Identity, error) {
	id, ok := r[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

type call struct {
	method string
	target string
	body   string
	as     *domain.Identity
	params map[string]string
}

// serve runs h behind the Auth middleware (when as is set) and returns the
// recorder together with the handler error, which the router would render.
func serve(t *testing.T, h echo.HandlerFunc, in call) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var body io.Reader
	if in.body != "" {
		body = strings.NewReader(in.body)
	}
	req := httptest.NewRequest(in.method, in.target, body)
	if in.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if in.as != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+in.as.UserID)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(in.params) > 0 {
		var names, values []string
		for name, value := range in.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	if in.as != nil {
		h = middleware.Auth(identityResolver{staff.UserID: staff, admin.UserID: admin})(h)
	}
	return rec, h(c)
}

// --- service stubs ---

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	logoutFn   func(ctx context.Context, id domain.Identity) error
	meFn       func(ctx context.Context, id domain.Identity) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Resolve(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, domain.ErrUnauthorized
}

func (s *stubAuthService) Logout(ctx context.Context, id domain.Identity) error {
	return s.logoutFn(ctx, id)
}

func (s *stubAuthService) Me(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.meFn(ctx, id)
}

type stubRequestService struct {
	createFn   func(ctx context.Context, caller domain.Identity, in ports.CreateBadgeRequestInput) (*domain.BadgeRequest, error)
	getFn      func(ctx context.Context, caller domain.Identity, id string) (*ports.BadgeRequestView, error)
	listFn     func(ctx context.Context, caller domain.Identity, in ports.ListBadgeRequestsInput) ([]ports.BadgeRequestView, error)
	awaitingFn func(ctx context.Context, caller domain.Identity) ([]*domain.BadgeRequest, error)
	statusFn   func(ctx context.Context, caller domain.Identity, id string, in ports.UpdateStatusInput) (*domain.BadgeRequest, error)
}

func (s *stubRequestService) Create(ctx context.Context, caller domain.Identity, in ports.CreateBadgeRequestInput) (*domain.BadgeRequest, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubRequestService) Get(ctx context.Context, caller domain.Identity, id string) (*ports.BadgeRequestView, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubRequestService) List(ctx context.Context, caller domain.Identity, in ports.ListBadgeRequestsInput) ([]ports.BadgeRequestView, error) {
	return s.listFn(ctx, caller, in)
}

func (s *stubRequestService) AwaitingBadge(ctx context.Context, caller domain.Identity) ([]*domain.BadgeRequest, error) {
	return s.awaitingFn(ctx, caller)
}

func (s *stubRequestService) UpdateStatus(ctx context.Context, caller domain.Identity, id string, in ports.UpdateStatusInput) (*domain.BadgeRequest, error) {
	return s.statusFn(ctx, caller, id, in)
}

type stubBadgeService struct {
	issueFn    func(ctx context.Context, caller domain.Identity, in ports.IssueBadgeInput) (*domain.Badge, error)
	listFn     func(ctx context.Context, caller domain.Identity) ([]*domain.Badge, error)
	downloadFn func(ctx context.Context, caller domain.Identity, id string) (*ports.BadgeArtifact, error)
}

func (s *stubBadgeService) Issue(ctx context.Context, caller domain.Identity, in ports.IssueBadgeInput) (*domain.Badge, error) {
	return s.issueFn(ctx, caller, in)
}

func (s *stubBadgeService) List(ctx context.Context, caller domain.Identity) ([]*domain.Badge, error) {
	return s.listFn(ctx, caller)
}

func (s *stubBadgeService) Download(ctx context.Context, caller domain.Identity, id string) (*ports.BadgeArtifact, error) {
	return s.downloadFn(ctx, caller, id)
}

type stubUserService struct {
	listFn   func(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	getFn    func(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	createFn func(ctx context.Context, caller domain.Identity, in ports.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, caller domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, caller domain.Identity, id string) error
	toggleFn func(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
}

func (s *stubUserService) List(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	return s.listFn(ctx, caller)
}

func (s *stubUserService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubUserService) Create(ctx context.Context, caller domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubUserService) Update(ctx context.Context, caller domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, caller, id, in)
}

func (s *stubUserService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	return s.deleteFn(ctx, caller, id)
}

func (s *stubUserService) ToggleAdmin(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	return s.toggleFn(ctx, caller, id)
}
