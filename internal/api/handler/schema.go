package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

const dateLayout = "2006-01-02"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- auth ---

type registerRequest struct {
	Name                 string `json:"name"                  validate:"required,max=255"`
	Email                string `json:"email"                 validate:"required,email"`
	Function             string `json:"function"              validate:"required"`
	Service              string `json:"service"               validate:"required"`
	Password             string `json:"password"              validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token       string       `json:"token,omitempty"`
	User        *domain.User `json:"user"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- users ---

type createUserRequest struct {
	Name     string `json:"name"      validate:"required,max=255"`
	Email    string `json:"email"     validate:"required,email"`
	Function string `json:"function"`
	Service  string `json:"service"`
	Password string `json:"password"  validate:"required,min=6"`
	IsActive *bool  `json:"is_active"`
	IsAdmin  *bool  `json:"is_admin"`
}

type updateUserRequest struct {
	Name     *string `json:"name"      validate:"omitempty,max=255"`
	Email    *string `json:"email"     validate:"omitempty,email"`
	Function *string `json:"function"`
	Service  *string `json:"service"`
	Password *string `json:"password"  validate:"omitempty,min=6"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

// --- badge requests ---

// zoneList accepts requested_zones either as a JSON array or as one
// comma-separated string, the form staff type into the request form.
type zoneList []string

func (z *zoneList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*z = domain.NormalizeZones(strings.Split(s, ","))
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return domain.NewValidationError("requested_zones", "requested_zones must be an array of strings or a comma-separated string")
	}
	*z = domain.NormalizeZones(items)
	return nil
}

type createBadgeRequestRequest struct {
	Type           string   `json:"type"            validate:"required"`
	RequestReason  string   `json:"request_reason"  validate:"required,max=500"`
	RequestedZones zoneList `json:"requested_zones" validate:"required,min=1"`
	ValidFrom      string   `json:"valid_from"      validate:"required,datetime=2006-01-02"`
	ValidUntil     *string  `json:"valid_until"     validate:"omitempty,datetime=2006-01-02"`
}

type updateStatusRequest struct {
	Status       string  `json:"status"        validate:"required,oneof=approved rejected"`
	AdminComment *string `json:"admin_comment" validate:"omitempty,max=500"`
}

type badgeRequestResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Type           string         `json:"type"`
	RequestReason  string         `json:"request_reason"`
	RequestedZones []string       `json:"requested_zones"`
	ValidFrom      string         `json:"valid_from"`
	ValidUntil     *string        `json:"valid_until"`
	Status         string         `json:"status"`
	AdminComment   *string        `json:"admin_comment"`
	ProcessedAt    *string        `json:"processed_at"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
	Badge          *badgeResponse `json:"badge,omitempty"`
}

// --- badges ---

type issueBadgeRequest struct {
	BadgeRequestID string `json:"badge_request_id" validate:"required"`
	BadgeNumber    string `json:"badge_number"     validate:"omitempty,max=64"`
}

type badgeResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	BadgeRequestID string  `json:"badge_request_id"`
	BadgeNumber    string  `json:"badge_number"`
	IssuedAt       string  `json:"issued_at"`
	ExpiresAt      *string `json:"expires_at"`
	Expired        bool    `json:"expired"`
	DownloadURL    string  `json:"download_url,omitempty"`
}
