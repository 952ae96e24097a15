// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("creeper-proof-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("creeper-proof-1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("creeper-proof-2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "$bcrypt$nope")
	assert.Error(t, err)

	_, err = VerifyPassword("x", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	assert.ErrorContains(t, err, "unsupported algorithm")
}

func TestVerifyPasswordWithRehash(t *testing.T) {
	current, err := HashPassword("pw")
	require.NoError(t, err)

	ok, newHash, err := VerifyPasswordWithRehash("pw", current)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newHash)

	assert.False(t, needsRehash(current))
	assert.True(t, needsRehash(strings.Replace(current, "t=1", "t=2", 1)))
	assert.True(t, needsRehash("garbage"))
}

func TestVerifyPasswordTimingSafeWithoutHash(t *testing.T) {
	ok, newHash, err := VerifyPasswordTimingSafe("dummy_password_for_timing_attack_prevention", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, newHash)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenHashing(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	other, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash(other, hash))
}
