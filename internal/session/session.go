// Package session holds the locally persisted identity record for the
// current user. The record is the single source of truth consulted by the
// route guard; it is written only by the account controller.
package session

// Role is the access level carried by the session record
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role string to a Role, defaulting to RoleUser
func ParseRole(raw string) Role {
	if raw == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// Record represents the authenticated identity persisted on this device
type Record struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// Patch describes a partial update to the record. Nil fields are left
// untouched; the authenticated flag is never affected by a patch.
type Patch struct {
	Name  *string
	Email *string
	Role  *Role
}

// Store defines the session persistence operations.
// This allows us to swap the file-backed store for an in-memory one in tests.
type Store interface {
	// Set replaces the full record and marks the session authenticated.
	// The record must carry a non-empty user id.
	Set(rec Record) error

	// Patch updates a subset of fields without touching the authenticated flag
	Patch(p Patch) error

	// Clear removes every field; IsAuthenticated reports false afterwards
	Clear() error

	// IsAuthenticated reports whether an authenticated record is present
	IsAuthenticated() bool

	// CurrentUserID returns the stored user id, or ok=false when there is no
	// session. Callers must treat absence as "no session", never substitute
	// a default identity.
	CurrentUserID() (string, bool)

	// Current returns the stored record and whether the session is authenticated
	Current() (Record, bool)
}
