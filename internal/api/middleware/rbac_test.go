package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/policy"
)

func TestRequire(t *testing.T) {
	gate := policy.New()

	tests := []struct {
		name    string
		id      *domain.Identity
		action  policy.Action
		wantErr error
	}{
		{"admin on admin action", &domain.Identity{UserID: "a", IsAdmin: true}, policy.ActionListUsers, nil},
		{"staff on admin action", &domain.Identity{UserID: "s"}, policy.ActionListUsers, domain.ErrForbidden},
		{"staff on open action", &domain.Identity{UserID: "s"}, policy.ActionCreateRequest, nil},
		{"no identity", nil, policy.ActionCreateRequest, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.id != nil {
				c.Set(identityKey, *tt.id)
			}

			called := false
			err := Require(gate, tt.action)(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			if tt.wantErr == nil {
				if err != nil || !called {
					t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
				}
				return
			}
			if called || !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v without calling next, got called=%v err=%v", tt.wantErr, called, err)
			}
		})
	}
}
