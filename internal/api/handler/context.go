package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/api/middleware"
	"github.com/airport-ops/badge-system/internal/core/domain"
)

// caller returns the identity the Auth middleware stored on the request.
// A missing identity means the route was mounted without Auth.
func caller(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: missing authentication", domain.ErrUnauthorized)
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
// A value of the wrong JSON type is reported against its field; any other
// decode failure is a plain 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		if verr := bindFieldError(err); verr != nil {
			return verr
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

func bindFieldError(err error) *domain.ValidationError {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return domain.NewValidationError(ute.Field, fmt.Sprintf("%s must be a %s", ute.Field, jsonTypeName(ute.Type)))
	}
	return nil
}

func jsonTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	default:
		return "number"
	}
}
