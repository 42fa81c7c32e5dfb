package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airport-ops/badge-system/internal/api/metrics"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

// BadgeRequestHandler handles HTTP requests for the badge request lifecycle.
type BadgeRequestHandler struct {
	service ports.BadgeRequestService
	now     func() time.Time
}

func NewBadgeRequestHandler(service ports.BadgeRequestService) *BadgeRequestHandler {
	return &BadgeRequestHandler{service: service, now: time.Now}
}

// List handles GET /badge-requests.
//
// @Summary      List badge requests
// @Description  Admins see every request; staff only see their own.
// @Tags         badge-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"  Enums(pending, approved, rejected)
// @Success      200     {array}   badgeRequestResponse
// @Failure      401     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /badge-requests [get]
func (h *BadgeRequestHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.Request().Context(), id, ports.ListBadgeRequestsInput{Status: c.QueryParam("status")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBadgeRequestViews(views, h.now()))
}

// Create handles POST /badge-requests.
//
// @Summary      Submit a badge request
// @Tags         badge-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createBadgeRequestRequest  true  "Request details; requested_zones may be an array or a comma-separated string"
// @Success      201   {object}  badgeRequestResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /badge-requests [post]
func (h *BadgeRequestHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req createBadgeRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.CreateBadgeRequestInput{
		Type:           req.Type,
		RequestReason:  req.RequestReason,
		RequestedZones: req.RequestedZones,
	}
	if in.ValidFrom, err = parseDate("valid_from", req.ValidFrom); err != nil {
		return err
	}
	if req.ValidUntil != nil && *req.ValidUntil != "" {
		until, err := parseDate("valid_until", *req.ValidUntil)
		if err != nil {
			return err
		}
		in.ValidUntil = &until
	}

	r, err := h.service.Create(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	metrics.RequestsCreatedTotal.WithLabelValues(string(r.Type)).Inc()

	return c.JSON(http.StatusCreated, toBadgeRequestResponse(r, nil, h.now()))
}

// Get handles GET /badge-requests/:id.
//
// @Summary      Get a badge request
// @Tags         badge-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Badge request ID"
// @Success      200  {object}  badgeRequestResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /badge-requests/{id} [get]
func (h *BadgeRequestHandler) Get(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBadgeRequestResponse(view.Request, view.Badge, h.now()))
}

// AwaitingBadge handles GET /badge-requests/awaiting-badge.
//
// @Summary      Approved requests without a badge
// @Tags         badge-requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   badgeRequestResponse
// @Failure      403  {object}  errorResponse
// @Router       /badge-requests/awaiting-badge [get]
func (h *BadgeRequestHandler) AwaitingBadge(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	rs, err := h.service.AwaitingBadge(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBadgeRequestList(rs, h.now()))
}

// UpdateStatus handles PUT /badge-requests/:id/status.
//
// @Summary      Approve or reject a badge request
// @Description  Rejection requires admin_comment. Approved and rejected are final.
// @Tags         badge-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Badge request ID"
// @Param        body  body      updateStatusRequest  true  "Decision"
// @Success      200   {object}  badgeRequestResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /badge-requests/{id}/status [put]
func (h *BadgeRequestHandler) UpdateStatus(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.UpdateStatus(c.Request().Context(), id, c.Param("id"), ports.UpdateStatusInput{
		Status:       req.Status,
		AdminComment: req.AdminComment,
	})
	if err != nil {
		return err
	}
	metrics.RequestsProcessedTotal.WithLabelValues(string(r.Status)).Inc()

	return c.JSON(http.StatusOK, toBadgeRequestResponse(r, nil, h.now()))
}
