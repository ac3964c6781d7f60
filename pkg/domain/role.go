package domain

import (
	"strings"

	dErrors "firledger/pkg/domain-errors"
)

// Identity is the opaque, caller-supplied token identifying a participant.
// The core does not verify authenticity; the calling environment is assumed
// to have authenticated it already.
type Identity string

func (i Identity) String() string { return string(i) }

// IsNil returns true when no identity was supplied.
func (i Identity) IsNil() bool { return strings.TrimSpace(string(i)) == "" }

// Role is the permission class of a participant. Exactly one role per
// identity at any time; unset identities implicitly hold RoleNone.
//
// Usage: construct via ParseRole at trust boundaries to enforce the closed
// enumeration; direct casting bypasses validation.
type Role string

const (
	RoleNone         Role = "None"
	RoleAdmin        Role = "Admin"
	RoleUser         Role = "User"
	RolePolice       Role = "Police"
	RoleInvestigator Role = "Investigator"
	RoleCourt        Role = "Court"
)

// validRoles is the single source of truth for the role enumeration.
var validRoles = map[Role]bool{
	RoleNone:         true,
	RoleAdmin:        true,
	RoleUser:         true,
	RolePolice:       true,
	RoleInvestigator: true,
	RoleCourt:        true,
}

// ParseRole constructs a Role from external input. Matching is
// case-insensitive; the canonical casing is stored. Unrecognized values are
// rejected rather than accepted silently.
func ParseRole(s string) (Role, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	for r := range validRoles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown role: %s", s)
}

// IsValid checks membership in the closed enumeration.
func (r Role) IsValid() bool { return validRoles[r] }

func (r Role) String() string { return string(r) }
