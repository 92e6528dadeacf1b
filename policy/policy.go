// Package policy decides which review actions a role may take on an item.
// Every function here is pure; front ends render controls from Available
// and the review desk re-checks the same predicates before any request.
package policy

import (
	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/session"
)

// Action is a user intent that can be offered or withheld.
type Action string

// Actions.
const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionAuditItem  Action = "audit_item"
	ActionAuditBrand Action = "audit_brand"
)

// CanApprove reports whether role may approve an item in status.
func CanApprove(role session.Role, status content.Status) bool {
	return role.Approver() && status == content.StatusPending
}

// CanReject reports whether role may reject an item in status.
func CanReject(role session.Role, status content.Status) bool {
	return CanApprove(role, status)
}

// CanAudit reports whether role may use the audit sub-workflow at all.
func CanAudit(role session.Role) bool {
	return role == session.RoleApproverB
}

// CanSubmitAudit reports whether an audit may be sent now: the role must be
// allowed to audit and an image must have been chosen.
func CanSubmitAudit(role session.Role, hasImage bool) bool {
	return CanAudit(role) && hasImage
}

// State is what the gating decision depends on.
type State struct {
	Role session.Role

	// Selected is the selected item, nil when nothing is selected.
	Selected *content.Item

	// HasImage reports whether an audit image has been chosen.
	HasImage bool
}

// Available lists the actions that may be offered in s, in display order.
func Available(s State) []Action {
	var out []Action
	if s.Selected != nil {
		if CanApprove(s.Role, s.Selected.Status) {
			out = append(out, ActionApprove)
		}
		if CanReject(s.Role, s.Selected.Status) {
			out = append(out, ActionReject)
		}
		if CanSubmitAudit(s.Role, s.HasImage) {
			out = append(out, ActionAuditItem)
		}
	}
	if CanSubmitAudit(s.Role, s.HasImage) {
		out = append(out, ActionAuditBrand)
	}
	return out
}

// Allows reports whether action is in Available(s).
func Allows(s State, action Action) bool {
	for _, a := range Available(s) {
		if a == action {
			return true
		}
	}
	return false
}
