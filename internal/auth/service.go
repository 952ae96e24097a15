// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/identity"
	"github.com/buildmc/storefront/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
	ErrNoPassword         = errors.New("account has no password")
)

// TopicPrefix namespaces per-user auth events on the realtime bus.
const TopicPrefix = "auth:"

func Topic(userID string) string {
	return TopicPrefix + userID
}

// UserInfo is the slice of an account that sign-in needs.
type UserInfo struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, email, passwordHash, fullName string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any) error
}

// device identifies where a session was opened, shown on the sessions
// page.
type device struct {
	userAgent string
	ip        string
}

type Service struct {
	repo   Repository
	jwt    *JWTManager
	users  UserProvider
	events EventPublisher
	logger *slog.Logger
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	events EventPublisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, jwt: jwt, users: users, events: events, logger: logger}
}

// Login checks email and password. Unknown emails still pay for a hash
// so response time does not reveal which accounts exist.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, core.ErrNotFound):
		_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil) //nolint:errcheck
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	rehash, err := s.checkPassword(user, req.Password)
	if err != nil {
		return nil, err
	}
	if rehash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, rehash); err != nil {
			s.logger.Warn("password rehash not stored", "user_id", user.ID, "error", err)
		}
	}

	return s.openSession(ctx, user, device{userAgent, ipAddress})
}

// checkPassword returns a fresh hash when the stored one uses outdated
// parameters. OAuth-only accounts have no hash and never match.
func (s *Service) checkPassword(user *UserInfo, password string) (string, error) {
	ok, rehash, err := core.VerifyPasswordTimingSafe(password, &user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	return rehash, nil
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, hash, req.FullName)
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		return nil, ErrEmailExists
	case err != nil:
		return nil, fmt.Errorf("register: %w", err)
	}

	return s.openSession(ctx, user, device{userAgent, ipAddress})
}

// SignInWithOAuth finds or creates the local account for a provider
// profile. A verified provider email links to an existing account.
func (s *Service) SignInWithOAuth(
	ctx context.Context,
	provider string,
	profile OAuthProfile,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.resolveOAuthUser(ctx, provider, profile)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user, device{userAgent, ipAddress})
}

func (s *Service) resolveOAuthUser(
	ctx context.Context,
	provider string,
	profile OAuthProfile,
) (*UserInfo, error) {
	linked, err := s.repo.FindOAuthIdentity(ctx, provider, profile.Subject)
	if err == nil {
		return s.users.GetByID(ctx, linked.UserID)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, fmt.Errorf("%s profile has no email: %w", provider, core.ErrInvalidInput)
	}

	var user *UserInfo
	if profile.EmailVerified {
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%s sign-in lookup: %w", provider, err)
		}
	}

	if user == nil {
		user, err = s.users.Create(ctx, email, "", profile.Name)
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, ErrEmailExists
		case err != nil:
			return nil, fmt.Errorf("%s sign-up: %w", provider, err)
		}
	}

	err = s.repo.LinkOAuthIdentity(ctx, &OAuthIdentity{
		Provider: provider,
		Subject:  profile.Subject,
		UserID:   user.ID,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Refresh exchanges a refresh token for a new pair. Presenting a token
// that was already exchanged revokes its whole session.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	case err != nil:
		return nil, fmt.Errorf("refresh: %w", err)
	}

	switch stored.stateAt(time.Now()) {
	case tokenRotated:
		s.logger.Warn("refresh token reuse, revoking session",
			"user_id", stored.UserID, "session_id", stored.FamilyID)
		//nolint:errcheck // the reuse error is returned either way
		_ = s.repo.RevokeFamily(ctx, stored.FamilyID)
		s.publish(ctx, identity.SignedOut, stored.UserID, stored.FamilyID)
		return nil, ErrTokenReuse
	case tokenRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case tokenExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	resp, err := s.issue(ctx, user, device{userAgent, ipAddress}, stored)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, identity.TokenRefreshed, user.ID, resp.Session.ID)
	return resp, nil
}

// Logout ends one session. Signing out a session that is already gone
// succeeds.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("logout: %w", core.ErrTokenInvalid)
	}
	err := s.endSession(ctx, userID, sessionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeSession ends one of the caller's other sessions from the
// sessions page.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	return s.endSession(ctx, userID, sessionID)
}

func (s *Service) endSession(ctx context.Context, userID, sessionID string) error {
	if _, err := s.repo.SessionHead(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if err := s.repo.RevokeFamily(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.publish(ctx, identity.SignedOut, userID, sessionID)
	return nil
}

// LogoutAll revokes every refresh token and bumps the token version so
// outstanding access tokens fail too.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	s.publish(ctx, identity.SignedOut, userID, "")
	return nil
}

func (s *Service) GetActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	tokens, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionInfo, len(tokens))
	for i, t := range tokens {
		sessions[i] = SessionInfo{
			ID:        t.FamilyID,
			Device:    t.UserAgent,
			IP:        t.IPAddress,
			SignedIn:  t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		}
	}
	return sessions, nil
}

// ChangePassword signs the account out everywhere once the new password
// is stored.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if user.PasswordHash == "" {
		return ErrNoPassword
	}
	if _, err := s.checkPassword(user, current); err != nil {
		return err
	}

	hash, err := core.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return s.LogoutAll(ctx, userID)
}

// VerifyAccessToken checks the signature and then the account's token
// version, so LogoutAll takes effect before access tokens expire.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("account gone: %w", core.ErrTokenInvalid)
	case err != nil:
		return nil, fmt.Errorf("token version lookup: %w", err)
	case claims.TokenVersion < user.TokenVersion:
		return nil, fmt.Errorf("token version %d < %d: %w",
			claims.TokenVersion, user.TokenVersion, core.ErrTokenRevoked)
	}
	return claims, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// CurrentSession resolves the live session behind an access token. A
// revoked or expired session, or a closed account, yields nil without
// error.
func (s *Service) CurrentSession(
	ctx context.Context,
	userID, sessionID string,
) (*identity.Session, *identity.User, error) {
	if userID == "" || sessionID == "" {
		return nil, nil, nil
	}

	head, err := s.repo.SessionHead(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, ignoreNotFound(err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, ignoreNotFound(err)
	}

	session := &identity.Session{ID: head.FamilyID, UserID: userID, ExpiresAt: head.ExpiresAt}
	return session, &identity.User{ID: user.ID, Email: user.Email, FullName: user.FullName}, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) publish(ctx context.Context, kind identity.ChangeKind, userID, sessionID string) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, Topic(userID), string(kind), AuthEvent{
		Kind:      string(kind),
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		s.logger.Warn("auth event not published", "kind", kind, "user_id", userID, "error", err)
	}
}

// openSession starts a new refresh-token chain and announces the sign-in.
func (s *Service) openSession(ctx context.Context, user *UserInfo, d device) (*AuthResponse, error) {
	resp, err := s.issue(ctx, user, d, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, identity.SignedIn, user.ID, resp.Session.ID)
	return resp, nil
}

// issue mints an access token and the next refresh token. With a previous
// token it continues that chain and marks the previous token rotated.
func (s *Service) issue(
	ctx context.Context,
	user *UserInfo,
	d device,
	previous *RefreshToken,
) (*AuthResponse, error) {
	family := ""
	if previous != nil {
		family = previous.FamilyID
	}

	refresh, err := s.jwt.CreateRefreshToken(user.ID, family)
	if err != nil {
		return nil, err
	}

	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		SessionID:    refresh.FamilyID,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, err
	}

	next := &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: d.userAgent,
		IPAddress: d.ip,
	}
	if err := s.repo.Create(ctx, next); err != nil {
		return nil, err
	}

	if previous != nil {
		if err := s.repo.MarkRotated(ctx, previous.ID, next.ID); err != nil {
			s.logger.Warn("refresh chain not recorded", "token_id", previous.ID, "error", err)
		}
	}

	ttl := s.jwt.AccessTokenTTL()
	return &AuthResponse{
		User:    toUserResponse(user),
		Session: SessionResponse{ID: refresh.FamilyID, ExpiresAt: refresh.ExpiresAt},
		Tokens: TokenResponse{
			AccessToken:  access,
			RefreshToken: refresh.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	}
}
