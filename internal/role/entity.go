// AngelaMos | 2026
// entity.go

package role

import (
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

func Valid(r string) bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

type UserRole struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Assignment is a role row joined with the account it belongs to. Email
// and FullName are empty when the account is gone.
type Assignment struct {
	UserRole
	Email    string `db:"email"`
	FullName string `db:"full_name"`
}
