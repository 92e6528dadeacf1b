package session

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the server-assigned role of the current actor.
type Role string

// Role constants. RoleNone means not resolved (or not resolvable) and grants
// no privileged action.
const (
	RoleNone      Role = ""
	RoleCreator   Role = "creator"
	RoleApproverA Role = "approver_a"
	RoleApproverB Role = "approver_b"
)

// Roles lists the known roles.
var Roles = []Role{RoleCreator, RoleApproverA, RoleApproverB}

// ParseRole maps server text to a Role. Unrecognised values become RoleNone.
func ParseRole(s string) Role {
	for _, r := range Roles {
		if string(r) == s {
			return r
		}
	}
	return RoleNone
}

// Known reports whether r is a resolved, recognised role.
func (r Role) Known() bool {
	return r == RoleCreator || r == RoleApproverA || r == RoleApproverB
}

// Approver reports whether r is one of the two approver roles.
func (r Role) Approver() bool {
	return r == RoleApproverA || r == RoleApproverB
}

func (r Role) String() string {
	if r == RoleNone {
		return "unknown"
	}
	return string(r)
}

// Label is the human-readable role name, e.g. "Approver B".
func (r Role) Label() string {
	if r == RoleNone {
		return "No role"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(r), "_", " "))
}
