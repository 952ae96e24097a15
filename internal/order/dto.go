// AngelaMos | 2026
// dto.go

package order

import (
	"time"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=unpaid processing completed cancelled"`
}

// AdminOrderResponse always carries the raw contact fields. The display
// fields are what the console renders for the current reveal set.
type AdminOrderResponse struct {
	WithProduct
	DisplayEmail string `json:"display_email"`
	DisplayPhone string `json:"display_phone"`
	Revealed     bool   `json:"revealed"`
}

type AdminListResponse struct {
	Orders   []AdminOrderResponse `json:"orders"`
	Statuses []string             `json:"statuses"`
	Reveal   []string             `json:"reveal"`
}

type DeleteRequestResponse struct {
	OrderID   string    `json:"order_id"`
	Token     string    `json:"confirm_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VisibilityResponse struct {
	OrderID  string   `json:"order_id"`
	Revealed bool     `json:"revealed"`
	Reveal   []string `json:"reveal"`
}

func ToAdminList(orders []WithProduct, visible *VisibilitySet) AdminListResponse {
	out := make([]AdminOrderResponse, 0, len(orders))
	for _, o := range orders {
		email, phone := visible.Display(o.Order)
		out = append(out, AdminOrderResponse{
			WithProduct:  o,
			DisplayEmail: email,
			DisplayPhone: phone,
			Revealed:     visible.Revealed(o.ID),
		})
	}
	return AdminListResponse{
		Orders:   out,
		Statuses: Statuses,
		Reveal:   visible.IDs(),
	}
}
