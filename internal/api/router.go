package api

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/airport-ops/badge-system/internal/api/handler"
	"github.com/airport-ops/badge-system/internal/api/middleware"
	"github.com/airport-ops/badge-system/internal/core/policy"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Requests ports.BadgeRequestService
	Badges   ports.BadgeService
}

// Options configures the router's cross-cutting concerns.
type Options struct {
	Logger zerolog.Logger
	Gate   *policy.Gate
	// Health lists the dependencies checked by /health/ready.
	Health map[string]handler.Pinger
	// LoginRateLimit is the number of login attempts allowed per second and client IP.
	LoginRateLimit float64
	// Metrics mounts the Prometheus middleware and /metrics. Registration is
	// global, so tests that build several routers leave it off.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Logger))
	if opts.Metrics {
		e.Use(echoprometheus.NewMiddleware("badge_api"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Health probes and docs (no auth required) ---
	health := handler.NewHealthHandler(opts.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	auth := middleware.Auth(svc.Auth)

	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login, loginLimiter(opts.LoginRateLimit))
	e.POST("/logout", authHandler.Logout, auth)
	e.GET("/me", authHandler.Me, auth)

	admin := func(action policy.Action) echo.MiddlewareFunc { return middleware.Require(opts.Gate, action) }

	// --- Users (admin) ---
	users := handler.NewUserHandler(svc.Users)
	ug := e.Group("/users", auth, admin(policy.ActionManageUsers))
	ug.GET("", users.List)
	ug.POST("", users.Create)
	ug.GET("/:id", users.Get)
	ug.PUT("/:id", users.Update)
	ug.DELETE("/:id", users.Delete)
	ug.POST("/:id/toggle-admin", users.ToggleAdmin)

	// --- Badge requests ---
	requests := handler.NewBadgeRequestHandler(svc.Requests)
	rg := e.Group("/badge-requests", auth)
	rg.GET("", requests.List)
	rg.POST("", requests.Create)
	rg.GET("/awaiting-badge", requests.AwaitingBadge, admin(policy.ActionListAwaiting))
	rg.GET("/:id", requests.Get)
	rg.PUT("/:id/status", requests.UpdateStatus, admin(policy.ActionUpdateRequestStatus))

	// --- Badges ---
	badges := handler.NewBadgeHandler(svc.Badges)
	bg := e.Group("/badges", auth)
	bg.POST("", badges.Issue, admin(policy.ActionIssueBadge))
	bg.GET("", badges.List)
	bg.GET("/:id/download", badges.Download)

	return e
}

// loginLimiter throttles login attempts per client IP.
func loginLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 5
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(math.Ceil(perSecond)),
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})
}
