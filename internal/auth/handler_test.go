// AngelaMos | 2026
// handler_test.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/middleware"
)

type staticRoles map[string]bool

func (r staticRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	return r[userID], nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Notice  *core.Notice    `json:"notice"`
}

func newTestRouter(t *testing.T, ts *testService, roles staticRoles) http.Handler {
	t.Helper()

	h := NewHandler(HandlerConfig{
		Service:   ts.Service,
		OAuth:     newTestOAuth(),
		Roles:     roles,
		PublicURL: "http://shop.test",
	})

	r := chi.NewRouter()
	h.RegisterRoutes(r, middleware.Authenticator(ts.Service), middleware.OptionalAuth(ts.Service))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func signIn(t *testing.T, h http.Handler) AuthResponse {
	t.Helper()

	rec, env := doJSON(t, h, http.MethodPost, "/auth/login", "",
		`{"email":"steve@example.com","password":"diamonds1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestLoginRespondsWithNotice(t *testing.T) {
	ts := newTestService(t)
	ts.users.add(t, "steve@example.com", "diamonds1")
	h := newTestRouter(t, ts, nil)

	rec, env := doJSON(t, h, http.MethodPost, "/auth/login", "",
		`{"email":"steve@example.com","password":"diamonds1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, core.NoticeSuccess, env.Notice.Level)
	assert.Equal(t, "Signed in successfully!", env.Notice.Message)
	assert.Equal(t, "/", env.Notice.Redirect)
}

func TestLoginFailureCarriesErrorNotice(t *testing.T) {
	ts := newTestService(t)
	ts.users.add(t, "steve@example.com", "diamonds1")
	h := newTestRouter(t, ts, nil)

	rec, env := doJSON(t, h, http.MethodPost, "/auth/login", "",
		`{"email":"steve@example.com","password":"wrongpass"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, core.NoticeError, env.Notice.Level)
	assert.Equal(t, "Invalid login credentials", env.Notice.Message)
}

func TestRegisterRedirectsToRequestedPage(t *testing.T) {
	ts := newTestService(t)
	h := newTestRouter(t, ts, nil)

	rec, env := doJSON(t, h, http.MethodPost, "/auth/register", "",
		`{"email":"new@example.com","password":"diamonds1","full_name":"New Player","redirect_to":"/checkout/p1"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Account created successfully!", env.Notice.Message)
	assert.Equal(t, "/checkout/p1", env.Notice.Redirect)
}

func TestRegisterValidationUsesFallbackNotice(t *testing.T) {
	ts := newTestService(t)
	h := newTestRouter(t, ts, nil)

	rec, env := doJSON(t, h, http.MethodPost, "/auth/register", "", `{"email":"not-an-email"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Failed to sign up", env.Notice.Message)
}

func TestLogoutSucceeds(t *testing.T) {
	ts := newTestService(t)
	ts.users.add(t, "steve@example.com", "diamonds1")
	h := newTestRouter(t, ts, nil)
	session := signIn(t, h)

	rec, env := doJSON(t, h, http.MethodPost, "/auth/logout", session.Tokens.AccessToken, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Signed out successfully", env.Notice.Message)
	assert.Equal(t, "/auth", env.Notice.Redirect)
}

func TestLogoutFailureLeavesSessionIntact(t *testing.T) {
	ts := newTestService(t)
	user := ts.users.add(t, "steve@example.com", "diamonds1")
	h := newTestRouter(t, ts, nil)
	session := signIn(t, h)

	ts.repo.findErr = errors.New("connection reset")
	rec, env := doJSON(t, h, http.MethodPost, "/auth/logout", session.Tokens.AccessToken, "")
	ts.repo.findErr = nil

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Failed to sign out", env.Notice.Message)
	assert.Empty(t, env.Notice.Redirect)

	still, _, err := ts.CurrentSession(context.Background(), user.ID, session.Session.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestGetSessionReportsAdmin(t *testing.T) {
	ts := newTestService(t)
	user := ts.users.add(t, "steve@example.com", "diamonds1")
	h := newTestRouter(t, ts, staticRoles{user.ID: true})
	session := signIn(t, h)

	rec, env := doJSON(t, h, http.MethodGet, "/auth/session", session.Tokens.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got CurrentSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.NotNil(t, got.User)
	assert.Equal(t, user.ID, got.User.ID)
	assert.Equal(t, session.Session.ID, got.Session.ID)
	assert.True(t, got.IsAdmin)
}

func TestGetSessionSignedOut(t *testing.T) {
	ts := newTestService(t)
	h := newTestRouter(t, ts, nil)

	rec, env := doJSON(t, h, http.MethodGet, "/auth/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got CurrentSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Nil(t, got.User)
	assert.Nil(t, got.Session)
	assert.False(t, got.IsAdmin)
}

func TestOAuthCallbackProviderErrorRedirectsToSignIn(t *testing.T) {
	ts := newTestService(t)
	h := newTestRouter(t, ts, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "http://shop.test/auth?"))
	assert.Contains(t, loc, "Failed+to+sign+in+with+Google")
}

func TestOAuthStartUnknownProvider(t *testing.T) {
	ts := newTestService(t)
	h := newTestRouter(t, ts, nil)

	rec, env := doJSON(t, h, http.MethodGet, "/auth/oauth/discord", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Failed to sign in with Discord", env.Notice.Message)
}
