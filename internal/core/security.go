// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	ErrMalformedHash   = errors.New("malformed password hash")
	ErrUnsupportedHash = errors.New("unsupported algorithm")
)

// Argon2Params are the cost settings encoded into every stored hash, so
// accounts hashed under older settings keep verifying.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	KeyLength:   32,
	SaltLength:  16,
}

const argonAlgorithm = "argon2id"

var b64 = base64.RawStdEncoding

// HashPassword returns a PHC-style string:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>
func HashPassword(password string) (string, error) {
	return hashWith(password, DefaultArgon2Params)
}

func hashWith(password string, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	var sb strings.Builder
	sb.WriteString("$" + argonAlgorithm)
	sb.WriteString("$v=" + strconv.Itoa(argon2.Version))
	fmt.Fprintf(&sb, "$m=%d,t=%d,p=%d", p.Memory, p.Iterations, p.Parallelism)
	sb.WriteString("$" + b64.EncodeToString(salt))
	sb.WriteString("$" + b64.EncodeToString(key))
	return sb.String(), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, key, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// VerifyPasswordWithRehash also returns a fresh hash when the stored one
// was produced with other cost settings. A failed rehash is not an error.
func VerifyPasswordWithRehash(password, encodedHash string) (bool, string, error) {
	ok, err := VerifyPassword(password, encodedHash)
	if err != nil || !ok {
		return false, "", err
	}

	if !needsRehash(encodedHash) {
		return true, "", nil
	}

	fresh, err := HashPassword(password)
	if err != nil {
		return true, "", nil //nolint:nilerr // verified; keep the old hash
	}
	return true, fresh, nil
}

var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("buildmc-timing-equalizer")
	if err != nil {
		panic(fmt.Sprintf("security: dummy hash: %v", err))
	}
	return h
})

// VerifyPasswordTimingSafe spends the same argon2 work whether or not the
// account has a password, so sign-in latency does not reveal which
// emails are registered. A nil or empty hash never verifies.
func VerifyPasswordTimingSafe(password string, encodedHash *string) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		_, _ = VerifyPassword(password, dummyHash()) //nolint:errcheck
		return false, "", nil
	}
	return VerifyPasswordWithRehash(password, *encodedHash)
}

func parseHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return p, nil, nil, ErrMalformedHash
	}
	if fields[1] != argonAlgorithm {
		return p, nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedHash, fields[1])
	}

	version, ok := strings.CutPrefix(fields[2], "v=")
	if !ok || version != strconv.Itoa(argon2.Version) {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}

	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}

	//nolint:gosec // lengths come from our own 16/32 byte encodings
	p.SaltLength, p.KeyLength = uint32(len(salt)), uint32(len(key))
	return p, salt, key, nil
}

func needsRehash(encoded string) bool {
	p, _, _, err := parseHash(encoded)
	return err != nil || p != DefaultArgon2Params
}

// GenerateSecureToken returns n random bytes, URL-safe encoded.
func GenerateSecureToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func GenerateRefreshToken() (string, error) {
	return GenerateSecureToken(32)
}

// HashToken is how refresh tokens are stored: only the sha256 digest
// touches the database.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func CompareTokenHash(token, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(hash)) == 1
}
