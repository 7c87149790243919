package profile

import "time"

// Role gates mutating operations. STAFF may read and move stock; everything
// else requires MANAGER.
type Role string

const (
	// RoleManager may perform all mutations.
	RoleManager Role = "MANAGER"
	// RoleStaff is the default role for self-healed profiles.
	RoleStaff Role = "STAFF"
)

// Profile is the application-side user record resolved from an authenticated
// identity.
type Profile struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time

	// Transient marks a degraded in-memory profile created when the store was
	// unreachable. Transient profiles are never written back.
	Transient bool
}

// IsManager reports whether the profile can perform manager-gated mutations.
func (p Profile) IsManager() bool {
	return p.Role == RoleManager
}
