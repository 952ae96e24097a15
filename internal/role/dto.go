// AngelaMos | 2026
// dto.go

package role

import (
	"time"
)

type AddRoleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role"    validate:"required,oneof=admin moderator user"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin moderator user"`
}

type AssignmentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type ListResponse struct {
	Roles      []AssignmentResponse `json:"roles"`
	AdminCount int                  `json:"admin_count"`
	UserCount  int                  `json:"user_count"`
}

func ToListResponse(rows []Assignment) ListResponse {
	out := ListResponse{Roles: make([]AssignmentResponse, 0, len(rows))}
	for _, a := range rows {
		out.Roles = append(out.Roles, AssignmentResponse{
			ID:        a.ID,
			UserID:    a.UserID,
			Role:      a.Role,
			Email:     a.Email,
			FullName:  a.FullName,
			CreatedAt: a.CreatedAt,
		})
		switch a.Role {
		case RoleAdmin:
			out.AdminCount++
		case RoleUser:
			out.UserCount++
		}
	}
	return out
}
