// Package policy is the single access-control gate every use case consults.
// It is pure: it sees the caller, the action and the owner of the target
// resource, and answers allow (nil) or deny (an error).
package policy

import (
	"github.com/airport-ops/badge-system/internal/core/domain"
)

// Action describes the kind of operation a caller wants to perform.
type Action string

const (
	ActionListRequests        Action = "badge_requests.list"
	ActionViewRequest         Action = "badge_requests.view"
	ActionCreateRequest       Action = "badge_requests.create"
	ActionUpdateRequestStatus Action = "badge_requests.update_status"
	ActionListAwaiting        Action = "badge_requests.list_awaiting"
	ActionIssueBadge          Action = "badges.issue"
	ActionListBadges          Action = "badges.list"
	ActionViewBadge           Action = "badges.view"
	ActionListUsers           Action = "users.list"
	ActionManageUsers         Action = "users.manage"
	ActionToggleAdmin         Action = "users.toggle_admin"
)

type rule int

const (
	anyAuthenticated rule = iota
	ownerOrAdmin
	adminOnly
)

var rules = map[Action]rule{
	ActionListRequests:        anyAuthenticated,
	ActionCreateRequest:       anyAuthenticated,
	ActionListBadges:          anyAuthenticated,
	ActionViewRequest:         ownerOrAdmin,
	ActionViewBadge:           ownerOrAdmin,
	ActionUpdateRequestStatus: adminOnly,
	ActionListAwaiting:        adminOnly,
	ActionIssueBadge:          adminOnly,
	ActionListUsers:           adminOnly,
	ActionManageUsers:         adminOnly,
	ActionToggleAdmin:         adminOnly,
}

// Gate authorizes actions. The zero value is ready to use.
type Gate struct{}

// New returns a Gate.
func New() *Gate { return &Gate{} }

// Authorize returns nil when caller may perform action on a resource owned by
// ownerID (empty when the action has no single target). It returns
// domain.ErrUnauthorized for an anonymous caller and domain.ErrForbidden for
// any other denial, including unknown actions.
func (g *Gate) Authorize(caller domain.Identity, action Action, ownerID string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthorized
	}
	r, ok := rules[action]
	if !ok {
		return domain.ErrForbidden
	}
	switch r {
	case anyAuthenticated:
		return nil
	case ownerOrAdmin:
		if caller.IsAdmin || (ownerID != "" && ownerID == caller.UserID) {
			return nil
		}
	case adminOnly:
		if caller.IsAdmin {
			return nil
		}
	}
	return domain.ErrForbidden
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate) Can(caller domain.Identity, action Action, ownerID string) bool {
	return g.Authorize(caller, action, ownerID) == nil
}

// Scope returns the owner filter a listing must apply for caller: empty for
// admins (everything), the caller's own ID otherwise.
func (g *Gate) Scope(caller domain.Identity) string {
	if caller.IsAdmin {
		return ""
	}
	return caller.UserID
}
