package model

// Role is the authorization role carried by an authenticated principal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAdvisor Role = "advisor"
	RoleStudent Role = "student"
	RoleUser    Role = "user"
)

// Principal is the authenticated caller as produced by the authentication service.
// OwnerID is set only when the token already carries the caller's linked student profile.
type Principal struct {
	ID      string
	Role    Role
	OwnerID string
}
