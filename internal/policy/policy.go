// Package policy maps (role, operation) to allowed/denied. Every mutating
// store entry point consults it; nothing caches the answer, since a role can
// only change through a full logout/login.
package policy

import "autotrack/internal/models"

// Mode selects the authorization model. The registry has shipped in two
// variants: one with an admin/viewer split and one where every authenticated
// user has full rights.
type Mode string

const (
	// ModeRBAC: admins have full access; viewers are restricted to
	// single-record verification lookups.
	ModeRBAC Mode = "rbac"
	// ModeOpen: every authenticated user can read and write.
	ModeOpen Mode = "open"
)

type Policy struct {
	mode Mode
}

func New(mode Mode) Policy {
	if mode != ModeOpen {
		mode = ModeRBAC
	}
	return Policy{mode: mode}
}

func (p Policy) Mode() Mode { return p.mode }

// CanWrite reports whether role may create, update or delete records.
func (p Policy) CanWrite(role models.UserRole) bool {
	if p.mode == ModeOpen {
		return role != ""
	}
	return role == models.RoleAdmin
}

// CanList reports whether role may view the full record table. Viewers in
// rbac mode only get the one-record-at-a-time verification flow.
func (p Policy) CanList(role models.UserRole) bool {
	if p.mode == ModeOpen {
		return role != ""
	}
	return role == models.RoleAdmin
}

// CanExport reports whether role may download the full collection.
func (p Policy) CanExport(role models.UserRole) bool {
	return p.CanList(role)
}
