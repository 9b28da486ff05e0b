package models

// Actor is the authenticated staff member behind an intent. Identity comes from
// the auth service; the floor only stamps it on records.
type Actor struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleCashier = "cashier"
	RoleChef    = "chef"
)
