// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrInvalidStatus = errors.New("invalid order status")

type Confirmer interface {
	Request(ctx context.Context, orderID string) (string, error)
	Confirm(ctx context.Context, orderID, token string) error
	Cancel(ctx context.Context, orderID string) error
}

type Service struct {
	repo   Repository
	guard  Confirmer
	logger *slog.Logger
}

func NewService(repo Repository, guard Confirmer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, guard: guard, logger: logger}
}

// History returns userID's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]WithProduct, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) All(ctx context.Context) ([]WithProduct, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed", "order_id", id, "status", status)
	return updated, nil
}

// RequestDelete starts the two-stage delete and returns the token that
// ConfirmDelete expects.
func (s *Service) RequestDelete(ctx context.Context, id string) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}
	return s.guard.Request(ctx, id)
}

func (s *Service) ConfirmDelete(ctx context.Context, id, token string) error {
	if err := s.guard.Confirm(ctx, id, token); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("order deleted", "order_id", id)
	return nil
}

func (s *Service) CancelDelete(ctx context.Context, id string) error {
	return s.guard.Cancel(ctx, id)
}

func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	return s.repo.Summarize(ctx)
}
