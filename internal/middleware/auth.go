// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buildmc/storefront/internal/core"
)

const principalKey contextKey = "principal"

// SignInPath is where clients are sent when a route needs a session.
const SignInPath = "/auth"

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error)
}

// RoleChecker answers whether a user currently holds the admin role.
// Admin status is looked up per request, never read from the token, so a
// revoked admin loses access on the next call.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type AccessTokenClaims struct {
	UserID       string
	SessionID    string
	TokenVersion int
}

// Authenticator rejects requests without a valid access token.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, true)
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise serves the request anonymously.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				if required {
					core.JSONError(w, core.UnauthorizedError("missing authorization token").
						WithNotice(core.Notice{
							Level:    core.NoticeError,
							Message:  "Please sign in to continue",
							Redirect: SignInPath,
						}))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			switch {
			case err == nil:
				r = r.WithContext(context.WithValue(r.Context(), principalKey, claims))
			case required:
				core.JSONError(w, tokenError(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenError(err error) error {
	var appErr *core.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	default:
		return core.TokenInvalidError()
	}
}

// RequireAdmin must run after Authenticator.
func RequireAdmin(checker RoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			admin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil {
				slog.Error("admin role lookup failed", "user_id", userID, "error", err)
				core.InternalServerError(w, err)
				return
			}
			if !admin {
				core.JSONError(w, core.ForbiddenError("insufficient permissions").
					WithNotice(core.Notice{
						Level:    core.NoticeError,
						Message:  "Admin access required",
						Redirect: "/",
					}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken reads a bearer token. Live-update streams pass it as
// ?access_token because EventSource cannot set headers.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		if r.Header.Get("Accept") == "text/event-stream" {
			return r.URL.Query().Get("access_token")
		}
		return ""
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func principal(ctx context.Context) *AccessTokenClaims {
	claims, _ := ctx.Value(principalKey).(*AccessTokenClaims)
	return claims
}

func GetUserID(ctx context.Context) string {
	if c := principal(ctx); c != nil {
		return c.UserID
	}
	return ""
}

func GetSessionID(ctx context.Context) string {
	if c := principal(ctx); c != nil {
		return c.SessionID
	}
	return ""
}

// WithUserID marks ctx as acting for userID without a session, for tools
// and tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey, &AccessTokenClaims{UserID: userID})
}
