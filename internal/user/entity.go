// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is a storefront account. OrderCount and LastOrderAt are derived
// from the orders table on read and never written back.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FullName     string     `db:"full_name"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`

	OrderCount  int        `db:"order_count"`
	LastOrderAt *time.Time `db:"last_order_at"`
}

// PasswordSignIn is false for accounts that only ever used Google or
// Discord.
func (u *User) PasswordSignIn() bool {
	return u.PasswordHash != ""
}
