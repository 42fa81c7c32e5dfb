package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/policy"
)

// Require rejects the request before it reaches the handler unless the gate
// allows action for the caller. Only actions without a resource owner can be
// checked here; owner checks happen in the services.
func Require(gate *policy.Gate, action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			if err := gate.Authorize(id, action, ""); err != nil {
				return err
			}
			return next(c)
		}
	}
}
