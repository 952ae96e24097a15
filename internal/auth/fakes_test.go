// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/core"
)

type memRepo struct {
	mu         sync.Mutex
	tokens     map[string]*RefreshToken
	identities map[string]*OAuthIdentity
	findErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		tokens:     make(map[string]*RefreshToken),
		identities: make(map[string]*OAuthIdentity),
	}
}

func (r *memRepo) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	cp.CreatedAt = time.Now()
	token.CreatedAt = cp.CreatedAt
	r.tokens[token.ID] = &cp
	return nil
}

func (r *memRepo) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
}

func (r *memRepo) MarkRotated(_ context.Context, id, replacedByID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.IsUsed {
		return core.ErrNotFound
	}
	now := time.Now()
	t.IsUsed, t.UsedAt, t.ReplacedByID = true, &now, &replacedByID
	return nil
}

func (r *memRepo) RevokeFamily(_ context.Context, familyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			revoke(t)
		}
	}
	return nil
}

func (r *memRepo) RevokeUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			revoke(t)
		}
	}
	return nil
}

func (r *memRepo) ListSessions(_ context.Context, userID string) ([]RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RefreshToken
	for _, t := range r.tokens {
		if t.UserID == userID && t.stateAt(time.Now()) == tokenActive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) SessionHead(_ context.Context, userID, familyID string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, t := range r.tokens {
		if t.UserID == userID && t.FamilyID == familyID && t.stateAt(time.Now()) == tokenActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
}

func (r *memRepo) PruneExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) FindOAuthIdentity(_ context.Context, provider, subject string) (*OAuthIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.identities[provider+"|"+subject]
	if !ok {
		return nil, fmt.Errorf("find oauth identity: %w", core.ErrNotFound)
	}
	cp := *id
	return &cp, nil
}

func (r *memRepo) LinkOAuthIdentity(_ context.Context, identity *OAuthIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identity.Provider + "|" + identity.Subject
	if _, ok := r.identities[key]; !ok {
		cp := *identity
		r.identities[key] = &cp
	}
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*UserInfo)}
}

func (u *memUsers) add(t *testing.T, email, password string) *UserInfo {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = core.HashPassword(password)
		require.NoError(t, err)
	}
	info, err := u.Create(context.Background(), email, hash, "Steve")
	require.NoError(t, err)
	return info
}

func (u *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, info := range u.users {
		if strings.EqualFold(info.Email, email) {
			cp := *info
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (u *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	info, ok := u.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *info
	return &cp, nil
}

func (u *memUsers) Create(_ context.Context, email, passwordHash, fullName string) (*UserInfo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, info := range u.users {
		if strings.EqualFold(info.Email, email) {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	info := &UserInfo{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		FullName:     fullName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	u.users[info.ID] = info
	cp := *info
	return &cp, nil
}

func (u *memUsers) IncrementTokenVersion(_ context.Context, userID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	info, ok := u.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	info.TokenVersion++
	return nil
}

func (u *memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	info, ok := u.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	info.PasswordHash = passwordHash
	return nil
}

type publishedEvent struct {
	Topic string
	Event AuthEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := payload.(AuthEvent)
	p.events = append(p.events, publishedEvent{Topic: topic, Event: ev})
	return nil
}

func (p *recordingPublisher) last() publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return publishedEvent{}
	}
	return p.events[len(p.events)-1]
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "buildmc-test",
		Audience:           "buildmc-test-api",
	})
	require.NoError(t, err)
	return m
}

type testService struct {
	*Service
	repo   *memRepo
	users  *memUsers
	events *recordingPublisher
	jwt    *JWTManager
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	repo := newMemRepo()
	users := newMemUsers()
	events := &recordingPublisher{}
	jwt := newTestJWT(t)

	return &testService{
		Service: NewService(repo, jwt, users, events, nil),
		repo:    repo,
		users:   users,
		events:  events,
		jwt:     jwt,
	}
}

func revoke(t *RefreshToken) {
	now := time.Now()
	t.RevokedAt = &now
}
