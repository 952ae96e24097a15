// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildmc/storefront/internal/core"
)

// Repository stores refresh-token chains and linked OAuth accounts. A
// session is one chain, keyed by family id.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	MarkRotated(ctx context.Context, id, replacedByID string) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeUser(ctx context.Context, userID string) error
	ListSessions(ctx context.Context, userID string) ([]RefreshToken, error)
	SessionHead(ctx context.Context, userID, familyID string) (*RefreshToken, error)
	PruneExpired(ctx context.Context, before time.Time) (int64, error)

	FindOAuthIdentity(ctx context.Context, provider, subject string) (*OAuthIdentity, error)
	LinkOAuthIdentity(ctx context.Context, identity *OAuthIdentity) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const tokenSelect = `
	SELECT id, user_id, token_hash, family_id, expires_at, created_at,
	       is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address
	FROM refresh_tokens`

// liveToken is the predicate for a token that can still be exchanged.
const liveToken = `revoked_at IS NULL AND NOT is_used AND expires_at > NOW()`

func (r *repository) Create(ctx context.Context, t *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &t.CreatedAt, query,
		t.ID, t.UserID, t.TokenHash, t.FamilyID, t.ExpiresAt, t.UserAgent, t.IPAddress)
	if err != nil {
		return fmt.Errorf("store refresh token for session %s: %w", t.FamilyID, err)
	}
	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.token(ctx, "find refresh token", tokenSelect+` WHERE token_hash = $1`, tokenHash)
}

// SessionHead is the newest live token of a chain.
func (r *repository) SessionHead(ctx context.Context, userID, familyID string) (*RefreshToken, error) {
	query := tokenSelect + `
		WHERE user_id = $1 AND family_id = $2 AND ` + liveToken + `
		ORDER BY created_at DESC
		LIMIT 1`
	return r.token(ctx, "find session", query, userID, familyID)
}

func (r *repository) token(ctx context.Context, op, query string, args ...any) (*RefreshToken, error) {
	var t RefreshToken
	err := r.db.GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

func (r *repository) ListSessions(ctx context.Context, userID string) ([]RefreshToken, error) {
	query := tokenSelect + `
		WHERE user_id = $1 AND ` + liveToken + `
		ORDER BY created_at DESC`

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return tokens, nil
}

// MarkRotated fails with ErrNotFound when the token was already rotated,
// which is how two concurrent refreshes of one token are told apart.
func (r *repository) MarkRotated(ctx context.Context, id, replacedByID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = TRUE, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND NOT is_used`

	n, err := r.exec(ctx, "rotate refresh token", query, id, replacedByID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rotate refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) error {
	_, err := r.exec(ctx, "revoke session",
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE family_id = $1 AND revoked_at IS NULL`,
		familyID)
	return err
}

func (r *repository) RevokeUser(ctx context.Context, userID string) error {
	_, err := r.exec(ctx, "revoke all sessions",
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`,
		userID)
	return err
}

func (r *repository) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.exec(ctx, "prune expired sessions",
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
}

func (r *repository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r *repository) FindOAuthIdentity(
	ctx context.Context,
	provider, subject string,
) (*OAuthIdentity, error) {
	query := `
		SELECT provider, subject, user_id, created_at
		FROM oauth_identities
		WHERE provider = $1 AND subject = $2`

	var link OAuthIdentity
	err := r.db.GetContext(ctx, &link, query, provider, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s account %s: %w", provider, subject, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s account %s: %w", provider, subject, err)
	}
	return &link, nil
}

// LinkOAuthIdentity is a no-op when the provider account is already
// linked, so a double-clicked callback does not fail sign-in.
func (r *repository) LinkOAuthIdentity(ctx context.Context, link *OAuthIdentity) error {
	query := `
		INSERT INTO oauth_identities (provider, subject, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, subject) DO NOTHING
		RETURNING created_at`

	err := r.db.GetContext(ctx, &link.CreatedAt, query, link.Provider, link.Subject, link.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("link %s account: %w", link.Provider, err)
	}
	return nil
}
