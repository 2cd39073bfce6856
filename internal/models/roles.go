package models

// Caller roles, lowest privilege first. RoleGuest is the default for
// unauthenticated requests and is never stored on a user record.
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the assignable account roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
