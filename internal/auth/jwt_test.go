// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/core"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT(t)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "u1",
		SessionID:    "fam-1",
		TokenVersion: 3,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "fam-1", claims.SessionID)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestVerifyAccessTokenRejects(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	base := config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "buildmc-test",
		Audience:           "buildmc-test-api",
	}
	issuer, err := NewJWTManager(base)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		cfg := base
		cfg.AccessTokenExpire = -2 * time.Minute
		stale, err := NewJWTManager(cfg)
		require.NoError(t, err)

		token, err := stale.CreateAccessToken(AccessTokenClaims{UserID: "u1", SessionID: "s"})
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("other audience", func(t *testing.T) {
		cfg := base
		cfg.Audience = "someone-else"
		foreign, err := NewJWTManager(cfg)
		require.NoError(t, err)

		token, err := foreign.CreateAccessToken(AccessTokenClaims{UserID: "u1", SessionID: "s"})
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("other key", func(t *testing.T) {
		token, err := newTestJWT(t).CreateAccessToken(AccessTokenClaims{UserID: "u1", SessionID: "s"})
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestKeyIDIsStableForTheSameKey(t *testing.T) {
	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
		Issuer:         "i",
		Audience:       "a",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	first, err := NewJWTManager(cfg)
	require.NoError(t, err)
	second, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, first.GetKeyID())
	assert.Equal(t, first.GetKeyID(), second.GetKeyID())

	rec := httptest.NewRecorder()
	first.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Use string `json:"use"`
			Crv string `json:"crv"`
			D   string `json:"d"`
		} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Keys, 1)
	assert.Equal(t, first.GetKeyID(), doc.Keys[0].Kid)
	assert.Equal(t, "sig", doc.Keys[0].Use)
	assert.Equal(t, "P-256", doc.Keys[0].Crv)
	assert.Empty(t, doc.Keys[0].D, "private component must not be published")
}

func TestRefreshTokenFamilies(t *testing.T) {
	m := newTestJWT(t)

	fresh, err := m.CreateRefreshToken("u1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.FamilyID)
	assert.Equal(t, core.HashToken(fresh.Token), fresh.Hash)

	rotated, err := m.CreateRefreshToken("u1", fresh.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, fresh.FamilyID, rotated.FamilyID)
	assert.NotEqual(t, fresh.Token, rotated.Token)
}
