// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/auth"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/identity"
	"github.com/buildmc/storefront/internal/middleware"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*User)}
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.DeletedAt == nil && existing.Email == u.Email {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) live(id string) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, fmt.Errorf("account: %w", core.ErrNotFound)
	}
	return u, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.live(id)
	if err != nil {
		return nil, err
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account by email: %w", core.ErrNotFound)
}

func (m *memRepo) Profile(ctx context.Context, id string) (*User, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) Rename(_ context.Context, id, fullName string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.live(id)
	if err != nil {
		return time.Time{}, err
	}
	u.FullName = fullName
	u.UpdatedAt = time.Now()
	return u.UpdatedAt, nil
}

func (m *memRepo) SetPassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.live(id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (m *memRepo) BumpTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.live(id)
	if err != nil {
		return err
	}
	u.TokenVersion++
	return nil
}

func (m *memRepo) Close(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.live(id)
	if err != nil {
		return err
	}
	now := time.Now()
	u.DeletedAt = &now
	u.TokenVersion++
	return nil
}

type published struct {
	topic string
	kind  string
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(_ context.Context, topic, eventType string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, kind: eventType})
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

func TestCreateNormalizesEmailAndName(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)

	info, err := svc.Create(context.Background(), "  Steve@Example.COM ", "", "  Steve  ")
	require.NoError(t, err)
	assert.Equal(t, "steve@example.com", info.Email)
	assert.Equal(t, "Steve", info.FullName)

	found, err := svc.GetByEmail(context.Background(), "STEVE@example.com")
	require.NoError(t, err)
	assert.Equal(t, info.ID, found.ID)

	_, err = svc.Create(context.Background(), "steve@example.com", "", "Dup")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRenamePublishesUserUpdated(t *testing.T) {
	events := &recorder{}
	svc := NewService(newMemRepo(), events, nil)

	info, err := svc.Create(context.Background(), "alex@example.com", "", "Alex")
	require.NoError(t, err)

	name := " Alex the Builder "
	u, err := svc.Rename(context.Background(), info.ID, UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alex the Builder", u.FullName)

	assert.Equal(t, []string{string(identity.UserUpdated)}, events.kinds())
	assert.Equal(t, auth.Topic(info.ID), events.events[0].topic)
}

func TestRenameWithoutChangesIsQuiet(t *testing.T) {
	events := &recorder{}
	svc := NewService(newMemRepo(), events, nil)

	info, err := svc.Create(context.Background(), "alex@example.com", "", "Alex")
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), info.ID, UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Empty(t, events.kinds())
}

func TestCloseAccountSignsOutAndHidesAccount(t *testing.T) {
	events := &recorder{}
	svc := NewService(newMemRepo(), events, nil)

	info, err := svc.Create(context.Background(), "alex@example.com", "hash", "Alex")
	require.NoError(t, err)

	require.NoError(t, svc.CloseAccount(context.Background(), info.ID))
	assert.Equal(t, []string{string(identity.SignedOut)}, events.kinds())

	_, err = svc.GetByID(context.Background(), info.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Create(context.Background(), "alex@example.com", "", "Alex again")
	assert.NoError(t, err, "a closed account frees its email")
}

func TestAnonymousCallersAreRejected(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)

	_, err := svc.Profile(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.ErrorIs(t, svc.CloseAccount(context.Background(), ""), core.ErrUnauthorized)
}

func TestProfileRoutes(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	info, err := svc.Create(context.Background(), "alex@example.com", "", "Alex")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), info.ID)))
		})
	})
	NewHandler(svc).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data ProfileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alex@example.com", body.Data.Email)
	assert.False(t, body.Data.PasswordSignIn)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/me",
		strings.NewReader(`{"full_name": "`+strings.Repeat("x", 101)+`"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account closed")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
