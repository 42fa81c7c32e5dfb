package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/api/metrics"
	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

// BadgeHandler handles badge issuance and download.
type BadgeHandler struct {
	service ports.BadgeService
	now     func() time.Time
}

func NewBadgeHandler(service ports.BadgeService) *BadgeHandler {
	return &BadgeHandler{service: service, now: time.Now}
}

// Issue handles POST /badges.
//
// @Summary      Issue a badge for an approved request
// @Description  Leave badge_number empty to have one generated (BDG-YYYYMMDD-XXXXXX).
// @Tags         badges
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      issueBadgeRequest  true  "Issuance details"
// @Success      201   {object}  badgeResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /badges [post]
func (h *BadgeHandler) Issue(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req issueBadgeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	b, err := h.service.Issue(c.Request().Context(), id, ports.IssueBadgeInput{
		BadgeRequestID: req.BadgeRequestID,
		BadgeNumber:    req.BadgeNumber,
	})
	if err != nil {
		metrics.IssueDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		metrics.IssueFailuresTotal.WithLabelValues(issueFailureReason(err)).Inc()
		return err
	}
	metrics.IssueDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	metrics.BadgesIssuedTotal.Inc()

	return c.JSON(http.StatusCreated, toBadgeResponse(b, h.now()))
}

func issueFailureReason(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrRenderFailure):
		return "render"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// List handles GET /badges.
//
// @Summary      List badges
// @Description  Admins see every badge; staff only see their own.
// @Tags         badges
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   badgeResponse
// @Failure      401  {object}  errorResponse
// @Router       /badges [get]
func (h *BadgeHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	badges, err := h.service.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBadgeList(badges, h.now()))
}

// Download handles GET /badges/:id/download.
//
// @Summary      Download the rendered badge
// @Tags         badges
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "Badge ID"
// @Success      200  {file}    file
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /badges/{id}/download [get]
func (h *BadgeHandler) Download(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	art, err := h.service.Download(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	defer art.Body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", art.Filename))
	return c.Stream(http.StatusOK, art.ContentType, art.Body)
}
