// AngelaMos | 2026
// oauth_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/buildmc/storefront/internal/config"
)

func newTestOAuth() *OAuthManager {
	return NewOAuthManager(config.OAuthConfig{
		StateSecret: "state-secret",
		StateTTL:    time.Minute,
		Google: config.OAuthProvider{
			ClientID:     "google-id",
			ClientSecret: "google-secret",
			RedirectURL:  "http://localhost:8080/v1/auth/oauth/google/callback",
		},
	})
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestAuthCodeURLCarriesRedirectInState(t *testing.T) {
	m := newTestOAuth()

	authURL, err := m.AuthCodeURL(ProviderGoogle, "/orders")
	require.NoError(t, err)

	claims, err := m.parseState(stateFrom(t, authURL))
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, claims.Provider)
	assert.Equal(t, "/orders", claims.Redirect)
}

func TestAuthCodeURLRejectsDisabledProvider(t *testing.T) {
	m := newTestOAuth()

	assert.False(t, m.Enabled(ProviderDiscord))
	_, err := m.AuthCodeURL(ProviderDiscord, "/")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestParseStateRejectsForeignSecret(t *testing.T) {
	m := newTestOAuth()
	other := &OAuthManager{secret: []byte("someone-else"), ttl: time.Minute}

	state, err := other.signState(ProviderGoogle, "/")
	require.NoError(t, err)

	_, err = m.parseState(state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestParseStateRejectsExpired(t *testing.T) {
	m := &OAuthManager{secret: []byte("state-secret"), ttl: -time.Minute}

	state, err := m.signState(ProviderGoogle, "/")
	require.NoError(t, err)

	_, err = m.parseState(state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                    "/",
		"/orders":             "/orders",
		"//evil.example":      "/",
		"/\\evil.example":     "/",
		"https://evil.com/x":  "/",
		"/admin?tab=products": "/admin?tab=products",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeRedirect(in), "input %q", in)
	}
}

func TestExchangeFetchesDiscordProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"80351110224678912","username":"nelly","global_name":"Nelly","email":"nelly@example.com","verified":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := &OAuthManager{
		secret:    []byte("state-secret"),
		ttl:       time.Minute,
		providers: map[string]*oauthProvider{},
	}
	m.providers[ProviderDiscord] = &oauthProvider{
		config: &oauth2.Config{
			ClientID:     "discord-id",
			ClientSecret: "discord-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/authorize",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: srv.URL + "/users/@me",
		parse:       parseDiscordProfile,
	}

	authURL, err := m.AuthCodeURL(ProviderDiscord, "/checkout/abc")
	require.NoError(t, err)

	profile, redirect, err := m.Exchange(context.Background(), ProviderDiscord, "the-code", stateFrom(t, authURL))
	require.NoError(t, err)
	assert.Equal(t, "/checkout/abc", redirect)
	assert.Equal(t, "80351110224678912", profile.Subject)
	assert.Equal(t, "Nelly", profile.Name)
	assert.True(t, profile.EmailVerified)
}

func TestExchangeRejectsStateForOtherProvider(t *testing.T) {
	m := newTestOAuth()
	m.providers[ProviderDiscord] = m.providers[ProviderGoogle]

	state, err := m.signState(ProviderGoogle, "/")
	require.NoError(t, err)

	_, _, err = m.Exchange(context.Background(), ProviderDiscord, "code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestParseGoogleProfileRequiresSubject(t *testing.T) {
	_, err := parseGoogleProfile([]byte(`{"email":"a@b.c"}`))
	assert.Error(t, err)

	p, err := parseGoogleProfile([]byte(`{"sub":"1","email":"a@b.c","email_verified":true,"name":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, "1", p.Subject)
	assert.True(t, p.EmailVerified)
}
