package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

type stubResolver struct {
	token string
	id    domain.Identity
	err   error
}

func (s stubResolver) Resolve(_ context.Context, token string) (domain.Identity, error) {
	if s.err != nil {
		return domain.Identity{}, s.err
	}
	if token != s.token {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return s.id, nil
}

func runAuth(t *testing.T, resolver TokenResolver, header string) (domain.Identity, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		got    domain.Identity
		called bool
	)
	h := Auth(resolver)(func(c echo.Context) error {
		called = true
		got, _ = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return got, called, err
}

func TestAuth_ValidToken(t *testing.T) {
	resolver := stubResolver{token: "good", id: domain.Identity{UserID: "u1", IsAdmin: true}}

	id, called, err := runAuth(t, resolver, "Bearer good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("next was not called")
	}
	if id.UserID != "u1" || !id.IsAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAuth_Rejections(t *testing.T) {
	resolver := stubResolver{token: "good", id: domain.Identity{UserID: "u1"}}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic good"},
		{"no token", "Bearer "},
		{"unknown token", "Bearer bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, called, err := runAuth(t, resolver, tt.header)
			if called {
				t.Fatal("next must not be called")
			}
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuth_PropagatesResolverError(t *testing.T) {
	_, called, err := runAuth(t, stubResolver{err: domain.ErrTokenExpired}, "Bearer whatever")
	if called || !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired without calling next, got called=%v err=%v", called, err)
	}
}

func TestIdentityFrom_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := IdentityFrom(c); ok {
		t.Fatal("expected no identity")
	}
	c.Set(identityKey, domain.Identity{})
	if _, ok := IdentityFrom(c); ok {
		t.Fatal("anonymous identity must not count")
	}
}
