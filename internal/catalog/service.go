// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
)

const MaxProductLimit = 100

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Products lists by name. limit <= 0 means every product.
func (s *Service) Products(ctx context.Context, limit int) ([]Product, error) {
	if limit > MaxProductLimit {
		limit = MaxProductLimit
	}
	return s.repo.ListProducts(ctx, limit)
}

func (s *Service) Product(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	return s.repo.CreateProduct(ctx, in)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	return s.repo.UpdateProduct(ctx, id, in)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	return s.repo.CreateCategory(ctx, in)
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	return s.repo.UpdateCategory(ctx, id, in)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) Counts(ctx context.Context) (products, categories int, err error) {
	if products, err = s.repo.CountProducts(ctx); err != nil {
		return 0, 0, err
	}
	if categories, err = s.repo.CountCategories(ctx); err != nil {
		return 0, 0, err
	}
	return products, categories, nil
}
