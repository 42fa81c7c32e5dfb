package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var today = time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)

func day(offset int) *time.Time {
	d := DateOf(today).AddDate(0, 0, offset)
	return &d
}

func validParams() NewBadgeRequestParams {
	return NewBadgeRequestParams{
		OwnerID:        "u1",
		Type:           "1_week",
		RequestReason:  "  contractor visit  ",
		RequestedZones: []string{"terminal", " apron", "terminal", ""},
		ValidFrom:      today,
		ValidUntil:     day(7),
	}
}

func TestNewBadgeRequest_Valid(t *testing.T) {
	r, err := NewBadgeRequest(validParams(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != StatusPending || r.ProcessedAt != nil || r.AdminComment != nil {
		t.Fatalf("new request must be pending and unprocessed: %+v", r)
	}
	if r.RequestReason != "contractor visit" {
		t.Errorf("reason not trimmed: %q", r.RequestReason)
	}
	if got := strings.Join(r.RequestedZones, ","); got != "terminal,apron" {
		t.Errorf("zones not normalized: %q", got)
	}
	if !r.ValidFrom.Equal(DateOf(today)) {
		t.Errorf("valid_from must be a date, got %v", r.ValidFrom)
	}
}

func TestNewBadgeRequest_Permanent(t *testing.T) {
	p := validParams()
	p.Type = "permanent"
	p.ValidUntil = nil

	r, err := NewBadgeRequest(p, today)
	if err != nil {
		t.Fatalf("permanent without valid_until must be accepted: %v", err)
	}
	if r.ValidUntil != nil {
		t.Fatalf("expected no valid_until, got %v", r.ValidUntil)
	}
}

func TestNewBadgeRequest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*NewBadgeRequestParams)
		field string
	}{
		{"missing type", func(p *NewBadgeRequestParams) { p.Type = "" }, "type"},
		{"unknown type", func(p *NewBadgeRequestParams) { p.Type = "2_days" }, "type"},
		{"blank reason", func(p *NewBadgeRequestParams) { p.RequestReason = "   " }, "request_reason"},
		{"long reason", func(p *NewBadgeRequestParams) { p.RequestReason = strings.Repeat("a", MaxReasonLength+1) }, "request_reason"},
		{"no zones", func(p *NewBadgeRequestParams) { p.RequestedZones = []string{" ", ""} }, "requested_zones"},
		{"missing from", func(p *NewBadgeRequestParams) { p.ValidFrom = time.Time{} }, "valid_from"},
		{"past from", func(p *NewBadgeRequestParams) { p.ValidFrom = *day(-1) }, "valid_from"},
		{"until before from", func(p *NewBadgeRequestParams) { p.ValidUntil = day(-1) }, "valid_until"},
		{"missing until", func(p *NewBadgeRequestParams) { p.ValidUntil = nil }, "valid_until"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mut(&p)
			_, err := NewBadgeRequest(p, today)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("expected field %q, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestNewBadgeRequest_SameDayWindow(t *testing.T) {
	p := validParams()
	p.Type = "1_day"
	p.ValidUntil = day(0)

	if _, err := NewBadgeRequest(p, today); err != nil {
		t.Fatalf("valid_until equal to valid_from must be accepted: %v", err)
	}
}

func TestBadgeRequest_Transition(t *testing.T) {
	later := today.Add(time.Hour)
	comment := "  missing clearance "

	tests := []struct {
		name      string
		from      RequestStatus
		to        RequestStatus
		comment   *string
		wantState bool
		wantField string
	}{
		{name: "approve", from: StatusPending, to: StatusApproved},
		{name: "reject with comment", from: StatusPending, to: StatusRejected, comment: &comment},
		{name: "reject without comment", from: StatusPending, to: StatusRejected, wantField: "admin_comment"},
		{name: "back to pending", from: StatusPending, to: StatusPending, wantField: "status"},
		{name: "approved is terminal", from: StatusApproved, to: StatusRejected, comment: &comment, wantState: true},
		{name: "rejected is terminal", from: StatusRejected, to: StatusApproved, wantState: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &BadgeRequest{Status: tt.from}
			err := r.Transition(tt.to, tt.comment, later)

			switch {
			case tt.wantField != "":
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, ok := verr.Fields[tt.wantField]; !ok {
					t.Fatalf("expected field %q, got %v", tt.wantField, verr.Fields)
				}
				if r.Status != tt.from {
					t.Fatalf("status must be unchanged on error")
				}
			case tt.wantState:
				if !errors.Is(err, ErrInvalidState) {
					t.Fatalf("expected ErrInvalidState, got %v", err)
				}
				if r.Status != tt.from || r.ProcessedAt != nil {
					t.Fatalf("request must be unchanged on error: %+v", r)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if r.Status != tt.to {
					t.Fatalf("expected %s, got %s", tt.to, r.Status)
				}
				if r.ProcessedAt == nil || !r.ProcessedAt.Equal(later) {
					t.Fatalf("processed_at not set: %v", r.ProcessedAt)
				}
				if tt.comment != nil && (r.AdminComment == nil || *r.AdminComment != "missing clearance") {
					t.Fatalf("comment not trimmed and stored: %v", r.AdminComment)
				}
			}
		})
	}
}

func TestRequestStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !StatusApproved.Terminal() || !StatusRejected.Terminal() {
		t.Error("approved and rejected must be terminal")
	}
}
