package handler

import (
	"fmt"
	"time"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", field))
	}
	return t, nil
}

func toBadgeRequestResponse(r *domain.BadgeRequest, b *domain.Badge, now time.Time) badgeRequestResponse {
	resp := badgeRequestResponse{
		ID:             r.ID,
		UserID:         r.OwnerID,
		Type:           string(r.Type),
		RequestReason:  r.RequestReason,
		RequestedZones: r.RequestedZones,
		ValidFrom:      r.ValidFrom.UTC().Format(dateLayout),
		ValidUntil:     formatDate(r.ValidUntil),
		Status:         string(r.Status),
		AdminComment:   r.AdminComment,
		ProcessedAt:    formatTimestamp(r.ProcessedAt),
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.RequestedZones == nil {
		resp.RequestedZones = []string{}
	}
	if b != nil {
		br := toBadgeResponse(b, now)
		resp.Badge = &br
	}
	return resp
}

func toBadgeRequestViews(views []ports.BadgeRequestView, now time.Time) []badgeRequestResponse {
	out := make([]badgeRequestResponse, len(views))
	for i, v := range views {
		out[i] = toBadgeRequestResponse(v.Request, v.Badge, now)
	}
	return out
}

func toBadgeRequestList(rs []*domain.BadgeRequest, now time.Time) []badgeRequestResponse {
	out := make([]badgeRequestResponse, len(rs))
	for i, r := range rs {
		out[i] = toBadgeRequestResponse(r, nil, now)
	}
	return out
}

func toBadgeResponse(b *domain.Badge, now time.Time) badgeResponse {
	resp := badgeResponse{
		ID:             b.ID,
		UserID:         b.OwnerID,
		BadgeRequestID: b.BadgeRequestID,
		BadgeNumber:    b.BadgeNumber,
		IssuedAt:       b.IssuedAt.UTC().Format(time.RFC3339),
		ExpiresAt:      formatDate(b.ExpiresAt),
		Expired:        b.Expired(now),
	}
	if b.ArtifactPath != nil {
		resp.DownloadURL = "/badges/" + b.ID + "/download"
	}
	return resp
}

func toBadgeList(bs []*domain.Badge, now time.Time) []badgeResponse {
	out := make([]badgeResponse, len(bs))
	for i, b := range bs {
		out[i] = toBadgeResponse(b, now)
	}
	return out
}

func emptyIfNil(users []*domain.User) []*domain.User {
	if users == nil {
		return []*domain.User{}
	}
	return users
}
