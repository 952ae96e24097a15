// AngelaMos | 2026
// oauth.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/buildmc/storefront/internal/config"
)

const (
	ProviderGoogle  = "google"
	ProviderDiscord = "discord"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrInvalidState    = errors.New("invalid oauth state")
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthProfile is the part of a provider account used to sign in.
type OAuthProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type oauthProvider struct {
	config      *oauth2.Config
	userInfoURL string
	parse       func([]byte) (OAuthProfile, error)
}

type stateClaims struct {
	Provider string `json:"prv"`
	Redirect string `json:"rdr"`
	gojwt.RegisteredClaims
}

type OAuthManager struct {
	providers map[string]*oauthProvider
	secret    []byte
	ttl       time.Duration
}

func NewOAuthManager(cfg config.OAuthConfig) *OAuthManager {
	m := &OAuthManager{
		providers: make(map[string]*oauthProvider),
		secret:    []byte(cfg.StateSecret),
		ttl:       cfg.StateTTL,
	}
	if m.ttl <= 0 {
		m.ttl = 10 * time.Minute
	}

	if cfg.Google.Enabled() {
		m.providers[ProviderGoogle] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
			parse:       parseGoogleProfile,
		}
	}

	if cfg.Discord.Enabled() {
		m.providers[ProviderDiscord] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.Discord.ClientID,
				ClientSecret: cfg.Discord.ClientSecret,
				RedirectURL:  cfg.Discord.RedirectURL,
				Endpoint:     discordEndpoint,
				Scopes:       []string{"identify", "email"},
			},
			userInfoURL: "https://discord.com/api/users/@me",
			parse:       parseDiscordProfile,
		}
	}

	return m
}

func (m *OAuthManager) Enabled(provider string) bool {
	_, ok := m.providers[provider]
	return ok
}

// AuthCodeURL returns the provider consent URL. The redirect target rides
// along in a signed state token.
func (m *OAuthManager) AuthCodeURL(provider, redirect string) (string, error) {
	p, ok := m.providers[provider]
	if !ok {
		return "", fmt.Errorf("%s: %w", provider, ErrUnknownProvider)
	}

	state, err := m.signState(provider, SafeRedirect(redirect))
	if err != nil {
		return "", err
	}

	return p.config.AuthCodeURL(state), nil
}

// Exchange redeems an authorization code and returns the provider profile
// with the redirect target from the state.
func (m *OAuthManager) Exchange(
	ctx context.Context,
	provider, code, state string,
) (OAuthProfile, string, error) {
	p, ok := m.providers[provider]
	if !ok {
		return OAuthProfile{}, "", fmt.Errorf("%s: %w", provider, ErrUnknownProvider)
	}

	claims, err := m.parseState(state)
	if err != nil {
		return OAuthProfile{}, "", err
	}
	if claims.Provider != provider {
		return OAuthProfile{}, "", fmt.Errorf("state issued for %s: %w", claims.Provider, ErrInvalidState)
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return OAuthProfile{}, "", fmt.Errorf("exchange %s code: %w", provider, err)
	}

	body, err := fetchUserInfo(ctx, p.config.Client(ctx, tok), p.userInfoURL)
	if err != nil {
		return OAuthProfile{}, "", fmt.Errorf("%s userinfo: %w", provider, err)
	}

	profile, err := p.parse(body)
	if err != nil {
		return OAuthProfile{}, "", fmt.Errorf("%s userinfo: %w", provider, err)
	}

	return profile, claims.Redirect, nil
}

func (m *OAuthManager) signState(provider, redirect string) (string, error) {
	now := time.Now()
	claims := &stateClaims{
		Provider: provider,
		Redirect: redirect,
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  gojwt.NewNumericDate(now),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).
		SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

func (m *OAuthManager) parseState(state string) (*stateClaims, error) {
	claims := &stateClaims{}
	token, err := gojwt.ParseWithClaims(
		state,
		claims,
		func(t *gojwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidState
	}
	return claims, nil
}

func fetchUserInfo(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func parseGoogleProfile(body []byte) (OAuthProfile, error) {
	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return OAuthProfile{}, err
	}
	if info.Sub == "" {
		return OAuthProfile{}, errors.New("missing sub")
	}

	return OAuthProfile{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}

func parseDiscordProfile(body []byte) (OAuthProfile, error) {
	var info struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return OAuthProfile{}, err
	}
	if info.ID == "" {
		return OAuthProfile{}, errors.New("missing id")
	}

	name := info.GlobalName
	if name == "" {
		name = info.Username
	}

	return OAuthProfile{
		Subject:       info.ID,
		Email:         info.Email,
		EmailVerified: info.Verified,
		Name:          name,
	}, nil
}

// SafeRedirect keeps post-sign-in navigation on this site.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
