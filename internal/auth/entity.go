// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is one link in a session's rotation chain. FamilyID is the
// session id the storefront exposes; every rotation keeps it.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

type tokenState int

const (
	tokenActive tokenState = iota
	// tokenRotated was already exchanged; presenting it again means the
	// chain leaked.
	tokenRotated
	tokenRevoked
	tokenExpired
)

func (t *RefreshToken) stateAt(now time.Time) tokenState {
	switch {
	case t.IsUsed:
		return tokenRotated
	case t.RevokedAt != nil:
		return tokenRevoked
	case !now.Before(t.ExpiresAt):
		return tokenExpired
	default:
		return tokenActive
	}
}

// OAuthIdentity links a Google or Discord account to a storefront user.
type OAuthIdentity struct {
	Provider  string    `db:"provider"`
	Subject   string    `db:"subject"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
