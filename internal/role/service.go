// AngelaMos | 2026
// service.go

package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buildmc/storefront/internal/auth"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/identity"
)

var ErrAlreadyAssigned = errors.New("user already has a role")

type Service struct {
	repo   Repository
	events auth.EventPublisher
	logger *slog.Logger
}

func NewService(repo Repository, events auth.EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, events: events, logger: logger}
}

// IsAdmin is consulted on every admin request and by live identity
// contexts; it is never cached in tokens.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.repo.HasRole(ctx, userID, RoleAdmin)
}

func (s *Service) List(ctx context.Context) ([]Assignment, error) {
	return s.repo.List(ctx)
}

func (s *Service) Add(ctx context.Context, userID, role string) (*UserRole, error) {
	if !Valid(role) {
		return nil, fmt.Errorf("role %q: %w", role, core.ErrInvalidInput)
	}

	if _, err := s.repo.FindByUser(ctx, userID); err == nil {
		return nil, ErrAlreadyAssigned
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	ur := &UserRole{UserID: userID, Role: role}
	if err := s.repo.Create(ctx, ur); err != nil {
		if core.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}

	s.notify(ctx, ur.UserID)
	return ur, nil
}

func (s *Service) Update(ctx context.Context, id, role string) (*UserRole, error) {
	if !Valid(role) {
		return nil, fmt.Errorf("role %q: %w", role, core.ErrInvalidInput)
	}

	ur, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, ur.UserID)
	return ur, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ur, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.notify(ctx, ur.UserID)
	return nil
}

// notify prompts live identity contexts of the user to re-derive admin
// status.
func (s *Service) notify(ctx context.Context, userID string) {
	if s.events == nil {
		return
	}

	kind := string(identity.UserUpdated)
	err := s.events.Publish(ctx, auth.Topic(userID), kind, auth.AuthEvent{
		Kind:   kind,
		UserID: userID,
	})
	if err != nil {
		s.logger.Warn("role change not published", "user_id", userID, "error", err)
	}
}
