// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/buildmc/storefront/internal/auth"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/identity"
)

type Service struct {
	repo   Repository
	events auth.EventPublisher
	logger *slog.Logger
}

// NewService accepts a nil events publisher for offline tools.
func NewService(repo Repository, events auth.EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, events: events, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.info(), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return u.info(), nil
}

// Create stores a new account. passwordHash is empty for OAuth sign-ups.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, fullName string,
) (*auth.UserInfo, error) {
	u := &User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(fullName),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u.info(), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.BumpTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.SetPassword(ctx, userID, passwordHash)
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("profile: %w", core.ErrUnauthorized)
	}
	return s.repo.Profile(ctx, userID)
}

// Rename changes the display name shown at checkout and tells every open
// tab of the user to refetch its session.
func (s *Service) Rename(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("rename: %w", core.ErrUnauthorized)
	}

	if req.FullName != nil {
		if _, err := s.repo.Rename(ctx, userID, strings.TrimSpace(*req.FullName)); err != nil {
			return nil, err
		}
		s.publish(ctx, userID, identity.UserUpdated)
	}

	return s.repo.Profile(ctx, userID)
}

// CloseAccount soft-deletes the account. Orders stay for the admin
// ledger; every session of the user is signed out.
func (s *Service) CloseAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("close account: %w", core.ErrUnauthorized)
	}
	if err := s.repo.Close(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("account closed", "user_id", userID)
	s.publish(ctx, userID, identity.SignedOut)
	return nil
}

func (s *Service) publish(ctx context.Context, userID string, kind identity.ChangeKind) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, auth.Topic(userID), string(kind), auth.AuthEvent{
		Kind:   string(kind),
		UserID: userID,
	})
	if err != nil {
		s.logger.Warn("account event not published",
			"user_id", userID, "kind", kind, "error", err)
	}
}

func (u *User) info() *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
