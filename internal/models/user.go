package models

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
)

// Session is the active authenticated identity. It is mirrored to the
// persistent store on login and removed on logout.
type Session struct {
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}
