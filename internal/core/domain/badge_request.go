package domain

import (
	"fmt"
	"strings"
	"time"
)

// BadgeType is the requested validity duration of a badge.
type BadgeType string

const (
	Type1Day      BadgeType = "1_day"
	Type1Week     BadgeType = "1_week"
	Type1Month    BadgeType = "1_month"
	Type3Months   BadgeType = "3_months"
	Type6Months   BadgeType = "6_months"
	Type1Year     BadgeType = "1_year"
	TypePermanent BadgeType = "permanent"
)

var badgeTypes = []BadgeType{Type1Day, Type1Week, Type1Month, Type3Months, Type6Months, Type1Year, TypePermanent}

// Valid reports whether t is one of the enumerated badge types.
func (t BadgeType) Valid() bool {
	for _, bt := range badgeTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// RequestStatus is the lifecycle state of a badge request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// validTransitions defines the allowed state machine transitions. Approved and
// rejected are terminal.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusPending: {StatusApproved, StatusRejected},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool { return len(validTransitions[s]) == 0 }

const (
	MaxReasonLength  = 500
	MaxCommentLength = 500
)

// BadgeRequest is a staff member's application for a badge.
type BadgeRequest struct {
	ID             string
	OwnerID        string
	Type           BadgeType
	RequestReason  string
	RequestedZones []string
	ValidFrom      time.Time
	ValidUntil     *time.Time
	Status         RequestStatus
	AdminComment   *string
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewBadgeRequestParams carries the owner-supplied fields of a new request.
type NewBadgeRequestParams struct {
	OwnerID        string
	Type           string
	RequestReason  string
	RequestedZones []string
	ValidFrom      time.Time
	ValidUntil     *time.Time
}

// NewBadgeRequest validates params against today's date (taken from now) and
// returns a pending request.
func NewBadgeRequest(p NewBadgeRequestParams, now time.Time) (*BadgeRequest, error) {
	verr := &ValidationError{}

	bt := BadgeType(p.Type)
	if p.Type == "" {
		verr.Add("type", "type is required")
	} else if !bt.Valid() {
		verr.Add("type", fmt.Sprintf("type must be one of: %s", joinTypes()))
	}

	reason := strings.TrimSpace(p.RequestReason)
	switch {
	case reason == "":
		verr.Add("request_reason", "request_reason is required")
	case len([]rune(reason)) > MaxReasonLength:
		verr.Add("request_reason", fmt.Sprintf("request_reason must be at most %d characters", MaxReasonLength))
	}

	zones := NormalizeZones(p.RequestedZones)
	if len(zones) == 0 {
		verr.Add("requested_zones", "requested_zones is required")
	}

	today := DateOf(now)
	from := DateOf(p.ValidFrom)
	if p.ValidFrom.IsZero() {
		verr.Add("valid_from", "valid_from is required")
	} else if from.Before(today) {
		verr.Add("valid_from", "valid_from must be today or later")
	}

	var until *time.Time
	if p.ValidUntil != nil {
		u := DateOf(*p.ValidUntil)
		until = &u
		if !p.ValidFrom.IsZero() && u.Before(from) {
			verr.Add("valid_until", "valid_until must be on or after valid_from")
		}
	} else if bt != TypePermanent {
		verr.Add("valid_until", "valid_until is required unless type is permanent")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ts := now.UTC()
	return &BadgeRequest{
		OwnerID:        p.OwnerID,
		Type:           bt,
		RequestReason:  reason,
		RequestedZones: zones,
		ValidFrom:      from,
		ValidUntil:     until,
		Status:         StatusPending,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}, nil
}

// Transition validates a status change and applies it in place.
func (r *BadgeRequest) Transition(next RequestStatus, comment *string, now time.Time) error {
	verr := &ValidationError{}
	if next != StatusApproved && next != StatusRejected {
		verr.Add("status", "status must be one of: approved rejected")
	}

	var c *string
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if trimmed != "" {
			c = &trimmed
		}
	}
	if next == StatusRejected && c == nil {
		verr.Add("admin_comment", "admin_comment is required when rejecting")
	}
	if c != nil && len([]rune(*c)) > MaxCommentLength {
		verr.Add("admin_comment", fmt.Sprintf("admin_comment must be at most %d characters", MaxCommentLength))
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move request from %s to %s", ErrInvalidState, r.Status, next)
	}

	ts := now.UTC()
	r.Status = next
	r.AdminComment = c
	r.ProcessedAt = &ts
	r.UpdatedAt = ts
	return nil
}

// NormalizeZones trims zone names, drops empties and duplicates, keeping order.
func NormalizeZones(zones []string) []string {
	seen := make(map[string]struct{}, len(zones))
	out := make([]string, 0, len(zones))
	for _, z := range zones {
		z = strings.TrimSpace(z)
		if z == "" {
			continue
		}
		if _, dup := seen[z]; dup {
			continue
		}
		seen[z] = struct{}{}
		out = append(out, z)
	}
	return out
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func joinTypes() string {
	s := make([]string, len(badgeTypes))
	for i, t := range badgeTypes {
		s[i] = string(t)
	}
	return strings.Join(s, " ")
}
