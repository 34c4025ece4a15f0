package auth

import "strings"

// Role is the application authorization role resolved from the document
// store. It is a closed set: anything outside the known values parses to
// RoleUnrecognized so the fallback branch is exhaustive.
type Role string

const (
	RoleStudent      Role = "student"
	RoleTeacher      Role = "teacher"
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleUnrecognized Role = "unrecognized"
)

// ParseRole maps a stored role string to the closed Role set.
// Matching is case-insensitive; unknown or empty values map to
// RoleUnrecognized.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent
	case RoleTeacher:
		return RoleTeacher
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleUnrecognized
	}
}

// ViewSelector names the dashboard view a resolved session lands on.
type ViewSelector string

const (
	// ViewStudent is the student dashboard.
	ViewStudent ViewSelector = "student"
	// ViewScheduling is the scheduling/management dashboard shared by
	// teachers, admins, and managers.
	ViewScheduling ViewSelector = "scheduling"
	// ViewNotConfigured is the "access not configured" page shown when a
	// role is missing or unrecognized. This is a deliberate terminal
	// state, not an error: it never redirects or retries.
	ViewNotConfigured ViewSelector = "not-configured"
)

// Dispatch selects the dashboard view for a resolved session and role.
// Pure decision logic, no side effects; the selection depends on the
// role alone. The caller must only invoke it for authenticated sessions
// (the route guard guarantees the ordering).
func Dispatch(_ Session, role Role) ViewSelector {
	switch role {
	case RoleStudent:
		return ViewStudent
	case RoleTeacher, RoleAdmin, RoleManager:
		return ViewScheduling
	case RoleUnrecognized:
		return ViewNotConfigured
	default:
		return ViewNotConfigured
	}
}
