package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/policy"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

// BadgeRequestService implements the badge request lifecycle.
type BadgeRequestService struct {
	requests ports.BadgeRequestRepository
	badges   ports.BadgeRepository
	gate     *policy.Gate
	logger   zerolog.Logger
	now      func() time.Time
}

func NewBadgeRequestService(requests ports.BadgeRequestRepository, badges ports.BadgeRepository, gate *policy.Gate, logger zerolog.Logger) *BadgeRequestService {
	return &BadgeRequestService{
		requests: requests,
		badges:   badges,
		gate:     gate,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates and stores a new pending request owned by the caller.
func (s *BadgeRequestService) Create(ctx context.Context, caller domain.Identity, in ports.CreateBadgeRequestInput) (*domain.BadgeRequest, error) {
	if err := s.gate.Authorize(caller, policy.ActionCreateRequest, ""); err != nil {
		return nil, err
	}

	r, err := domain.NewBadgeRequest(domain.NewBadgeRequestParams{
		OwnerID:        caller.UserID,
		Type:           in.Type,
		RequestReason:  in.RequestReason,
		RequestedZones: in.RequestedZones,
		ValidFrom:      in.ValidFrom,
		ValidUntil:     in.ValidUntil,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, r); err != nil {
		s.logger.Error().Err(err).Msg("failed to create badge request")
		return nil, err
	}

	s.logger.Info().Str("request_id", r.ID).Str("owner_id", r.OwnerID).Str("type", string(r.Type)).Msg("badge request created")
	return r, nil
}

// Get returns one request with its badge, if the caller owns it or is admin.
func (s *BadgeRequestService) Get(ctx context.Context, caller domain.Identity, id string) (*ports.BadgeRequestView, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(caller, policy.ActionViewRequest, r.OwnerID); err != nil {
		return nil, err
	}

	b, err := s.badges.FindByRequestID(ctx, r.ID)
	if err := lookupErr(err); err != nil {
		return nil, err
	}
	return &ports.BadgeRequestView{Request: r, Badge: b}, nil
}

// List returns every request for admins and only owned requests otherwise.
func (s *BadgeRequestService) List(ctx context.Context, caller domain.Identity, in ports.ListBadgeRequestsInput) ([]ports.BadgeRequestView, error) {
	if err := s.gate.Authorize(caller, policy.ActionListRequests, ""); err != nil {
		return nil, err
	}

	status := domain.RequestStatus(in.Status)
	switch status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return nil, domain.NewValidationError("status", "status must be one of: pending approved rejected")
	}

	items, err := s.requests.List(ctx, ports.ListBadgeRequestsFilter{
		OwnerID: s.gate.Scope(caller),
		Status:  status,
	})
	if err != nil {
		return nil, err
	}

	byRequest, err := s.badges.FindByRequestIDs(ctx, requestIDs(items))
	if err != nil {
		return nil, err
	}

	out := make([]ports.BadgeRequestView, len(items))
	for i, r := range items {
		out[i] = ports.BadgeRequestView{Request: r, Badge: byRequest[r.ID]}
	}
	return out, nil
}

// AwaitingBadge lists approved requests for which no badge was issued yet.
func (s *BadgeRequestService) AwaitingBadge(ctx context.Context, caller domain.Identity) ([]*domain.BadgeRequest, error) {
	if err := s.gate.Authorize(caller, policy.ActionListAwaiting, ""); err != nil {
		return nil, err
	}

	approved, err := s.requests.List(ctx, ports.ListBadgeRequestsFilter{Status: domain.StatusApproved})
	if err != nil {
		return nil, err
	}
	issued, err := s.badges.FindByRequestIDs(ctx, requestIDs(approved))
	if err != nil {
		return nil, err
	}

	out := make([]*domain.BadgeRequest, 0, len(approved))
	for _, r := range approved {
		if _, ok := issued[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateStatus approves or rejects a pending request. Approval only flips the
// state; issuing the badge is a separate admin operation.
func (s *BadgeRequestService) UpdateStatus(ctx context.Context, caller domain.Identity, id string, in ports.UpdateStatusInput) (*domain.BadgeRequest, error) {
	if err := s.gate.Authorize(caller, policy.ActionUpdateRequestStatus, ""); err != nil {
		return nil, err
	}

	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := r.Status
	if err := r.Transition(domain.RequestStatus(in.Status), in.AdminComment, s.now()); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateStatus(ctx, r, from); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", r.ID).
		Str("from", string(from)).
		Str("to", string(r.Status)).
		Str("by", caller.UserID).
		Msg("badge request processed")
	return r, nil
}

func requestIDs(rs []*domain.BadgeRequest) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}
