// File: internal/common/context_keys.go
package common

const (
	// UserIDHeader carries the caller-supplied identity string.
	UserIDHeader = "X-User-ID"
	// AdminTokenHeader carries the shared admin credential.
	AdminTokenHeader = "X-Admin-Token"
	// UserIDKey is the context key for storing the caller's identity
	UserIDKey = "userID"
	// UserRoleKey is the context key for storing the caller's role
	UserRoleKey = "userRole"
)

// Roles known to the system.
const (
	RoleAdmin     = "admin"
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
)
