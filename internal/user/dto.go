// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=100"`
}

// ProfileResponse is what the account page renders next to the order
// history.
type ProfileResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	PasswordSignIn bool       `json:"password_sign_in"`
	OrderCount     int        `json:"order_count"`
	LastOrderAt    *time.Time `json:"last_order_at,omitempty"`
	MemberSince    time.Time  `json:"member_since"`
}

func toProfile(u *User) ProfileResponse {
	return ProfileResponse{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		PasswordSignIn: u.PasswordSignIn(),
		OrderCount:     u.OrderCount,
		LastOrderAt:    u.LastOrderAt,
		MemberSince:    u.CreatedAt,
	}
}
