// AngelaMos | 2026
// entity.go

package order

import (
	"time"
)

const (
	StatusUnpaid     = "unpaid"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Statuses lists every order status. Any status may move to any other.
var Statuses = []string{StatusUnpaid, StatusProcessing, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order.TotalPrice is the product price when the order was placed and is
// never recalculated.
type Order struct {
	ID               string    `db:"id"                 json:"id"`
	UserID           string    `db:"user_id"            json:"user_id"`
	ProductID        *string   `db:"product_id"         json:"product_id"`
	CustomerRealName string    `db:"customer_real_name" json:"customer_real_name"`
	MinecraftName    string    `db:"minecraft_name"     json:"minecraft_name"`
	CustomerPhone    string    `db:"customer_phone"     json:"customer_phone"`
	CustomerEmail    string    `db:"customer_email"     json:"customer_email"`
	PaymentMethod    string    `db:"payment_method"     json:"payment_method"`
	TotalPrice       float64   `db:"total_price"        json:"total_price"`
	Status           string    `db:"status"             json:"status"`
	CreatedAt        time.Time `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"         json:"updated_at"`
}

// WithProduct is an order joined with its product. The product columns
// are nil once the product is deleted.
type WithProduct struct {
	Order
	ProductName        *string `db:"product_name"        json:"product_name"`
	ProductDescription *string `db:"product_description" json:"product_description"`
}
