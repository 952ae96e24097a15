// AngelaMos | 2026
// entity.go

package catalog

import (
	"time"
)

type Category struct {
	ID          string    `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}

type Product struct {
	ID          string    `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Description *string   `db:"description" json:"description"`
	Price       float64   `db:"price"       json:"price"`
	ImageURL    *string   `db:"image_url"   json:"image_url"`
	Stock       int       `db:"stock"       json:"stock"`
	CategoryID  *string   `db:"category_id" json:"category_id"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}
