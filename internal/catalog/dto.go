// AngelaMos | 2026
// dto.go

package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ProductRequest takes price and stock as numbers or numeric strings, the
// way admin forms submit them.
type ProductRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"image_url"`
	Stock       json.Number `json:"stock"`
	CategoryID  string      `json:"category_id"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductInput is a validated ProductRequest.
type ProductInput struct {
	Name        string
	Description *string
	Price       float64
	ImageURL    *string
	Stock       int
	CategoryID  *string
}

type CategoryInput struct {
	Name        string
	Description *string
}

// Validate collects every field problem rather than stopping at the first.
func (r ProductRequest) Validate() (ProductInput, map[string]string) {
	fields := make(map[string]string)
	in := ProductInput{
		Name:        strings.TrimSpace(r.Name),
		Description: optional(r.Description),
		ImageURL:    optional(r.ImageURL),
		CategoryID:  optional(r.CategoryID),
	}

	if in.Name == "" {
		fields["name"] = "Name is required"
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.Price.String()), 64)
	switch {
	case err != nil || math.IsNaN(price) || math.IsInf(price, 0):
		fields["price"] = "Price must be a number"
	case price < 0:
		fields["price"] = "Price cannot be negative"
	default:
		in.Price = math.Round(price*100) / 100
	}

	stock, err := parseStock(r.Stock.String())
	switch {
	case err != nil:
		fields["stock"] = "Stock must be a whole number"
	case stock < 0:
		fields["stock"] = "Stock cannot be negative"
	default:
		in.Stock = stock
	}

	if in.ImageURL != nil && !LooksLikeImageURL(*in.ImageURL) {
		fields["image_url"] = InvalidImageURLMessage
	}

	if len(fields) > 0 {
		return ProductInput{}, fields
	}
	return in, nil
}

func (r CategoryRequest) Validate() (CategoryInput, map[string]string) {
	in := CategoryInput{
		Name:        strings.TrimSpace(r.Name),
		Description: optional(r.Description),
	}
	if in.Name == "" {
		return CategoryInput{}, map[string]string{"name": "Name is required"}
	}
	return in, nil
}

// parseStock reads the leading integer, so "12" and "12.0" are both 12.
func parseStock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return int(math.Trunc(f)), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
