// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/identity"
	"github.com/buildmc/storefront/internal/middleware"
	"github.com/buildmc/storefront/internal/realtime"
)

const streamKeepAlive = 25 * time.Second

type HandlerConfig struct {
	Service   *Service
	OAuth     *OAuthManager
	Roles     middleware.RoleChecker
	Bus       Subscriber
	PublicURL string
	Logger    *slog.Logger
}

type Handler struct {
	service   *Service
	oauth     *OAuthManager
	roles     middleware.RoleChecker
	bus       Subscriber
	publicURL string
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   cfg.Service,
		oauth:     cfg.OAuth,
		roles:     cfg.Roles,
		bus:       cfg.Bus,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    logger,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)
		r.Get("/oauth/{provider}", h.OAuthStart)
		r.Get("/oauth/{provider}/callback", h.OAuthCallback)

		r.With(optionalAuth).Get("/session", h.GetSession)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Get("/state", h.StreamState)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

// bind decodes and validates a JSON body, returning an AppError the
// caller can render as is.
func bind[T any](h *Handler, r *http.Request) (T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, core.NewAppError(core.ErrInvalidInput, "invalid request body",
			http.StatusBadRequest, "BAD_REQUEST")
	}
	if err := h.validator.Struct(req); err != nil {
		return req, core.ValidationError(core.FieldErrors(err))
	}
	return req, nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to sign in"

	req, err := bind[LoginRequest](h, r)
	if err != nil {
		failWithNotice(w, err, failed)
		return
	}

	resp, err := h.service.Login(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		failWithNotice(w, core.UnauthorizedError("Invalid login credentials"), failed)
	case err != nil:
		h.logger.Error("sign in failed", "error", err)
		failWithNotice(w, err, failed)
	default:
		core.OKWithNotice(w, resp, core.Success("Signed in successfully!", "/"))
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to sign up"

	req, err := bind[RegisterRequest](h, r)
	if err != nil {
		failWithNotice(w, err, failed)
		return
	}

	resp, err := h.service.Register(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	switch {
	case errors.Is(err, ErrEmailExists):
		failWithNotice(w, core.DuplicateError("email"), failed)
		return
	case err != nil:
		h.logger.Error("sign up failed", "error", err)
		failWithNotice(w, err, failed)
		return
	}

	core.CreatedWithNotice(
		w,
		resp,
		core.Success("Account created successfully!", SafeRedirect(req.RedirectTo)),
	)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	req, err := bind[RefreshRequest](h, r)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		core.JSONError(w, refreshFailure(err))
		return
	}
	core.OK(w, resp)
}

func refreshFailure(err error) error {
	switch {
	case errors.Is(err, ErrTokenReuse):
		return core.NewAppError(core.ErrTokenRevoked,
			"security alert: token reuse detected, session revoked",
			http.StatusUnauthorized, "TOKEN_REUSE_DETECTED")
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	case errors.Is(err, core.ErrTokenInvalid):
		return core.TokenInvalidError()
	default:
		return err
	}
}

func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	authURL, err := h.oauth.AuthCodeURL(provider, r.URL.Query().Get("redirect_to"))
	if err != nil {
		core.JSONError(w, core.NotFoundError("sign-in provider").
			WithNotice(*core.Failure(providerFailure(provider), "")))
		return
	}

	core.OK(w, OAuthStartResponse{URL: authURL})
}

// OAuthCallback is reached by browser navigation, so both outcomes are
// redirects back into the site. Tokens travel in the URL fragment.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		h.redirectFailure(w, r, provider, errors.New(providerErr))
		return
	}

	profile, target, err := h.oauth.Exchange(r.Context(), provider, q.Get("code"), q.Get("state"))
	if err != nil {
		h.redirectFailure(w, r, provider, err)
		return
	}

	resp, err := h.service.SignInWithOAuth(
		r.Context(),
		provider,
		profile,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		h.redirectFailure(w, r, provider, err)
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", resp.Tokens.AccessToken)
	fragment.Set("refresh_token", resp.Tokens.RefreshToken)
	fragment.Set("expires_in", strconv.Itoa(resp.Tokens.ExpiresIn))
	fragment.Set("token_type", resp.Tokens.TokenType)

	http.Redirect(w, r, h.publicURL+target+"#"+fragment.Encode(), http.StatusFound)
}

func (h *Handler) redirectFailure(
	w http.ResponseWriter,
	r *http.Request,
	provider string,
	err error,
) {
	h.logger.Warn("oauth sign in failed", "provider", provider, "error", err)

	q := url.Values{}
	q.Set("error", providerFailure(provider))
	http.Redirect(w, r, h.publicURL+middleware.SignInPath+"?"+q.Encode(), http.StatusFound)
}

// Logout leaves the session untouched when revocation fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.service.Logout(r.Context(), userID, sessionID); err != nil {
		h.logger.Error("sign out failed", "user_id", userID, "error", err)
		failWithNotice(w, err, "Failed to sign out")
		return
	}

	core.OKWithNotice(w, nil, core.Success("Signed out successfully", middleware.SignInPath))
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		h.logger.Error("sign out everywhere failed", "user_id", userID, "error", err)
		failWithNotice(w, err, "Failed to sign out")
		return
	}

	core.OKWithNotice(w, nil, core.Success("Signed out of all sessions", middleware.SignInPath))
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := h.service.GetActiveSessions(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	current := middleware.GetSessionID(ctx)
	for i := range sessions {
		sessions[i].Current = sessions[i].ID == current
	}
	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		core.BadRequest(w, "session ID required")
		return
	}

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "session")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	req, err := bind[ChangePasswordRequest](h, r)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			core.JSONError(w, core.UnauthorizedError("current password is incorrect"))
		case errors.Is(err, ErrNoPassword):
			core.BadRequest(w, "account signs in with a provider and has no password")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OKWithNotice(w, nil, core.Success("Password changed. Please sign in again.", middleware.SignInPath))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, user)
}

// GetSession answers for signed-out callers too, with an empty session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	session, user, err := h.service.CurrentSession(r.Context(), userID, sessionID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := CurrentSessionResponse{}
	if session == nil || user == nil {
		core.OK(w, resp)
		return
	}

	resp.User = &UserResponse{ID: user.ID, Email: user.Email, FullName: user.FullName}
	resp.Session = &SessionResponse{ID: session.ID, ExpiresAt: session.ExpiresAt}

	if h.roles != nil {
		admin, err := h.roles.IsAdmin(r.Context(), user.ID)
		if err != nil {
			h.logger.Warn("admin role lookup failed", "user_id", user.ID, "error", err)
		}
		resp.IsAdmin = admin
	}

	core.OK(w, resp)
}

// StreamState pushes the caller's identity state over server-sent events
// until the client disconnects.
func (h *Handler) StreamState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := NewSessionSource(
		h.service,
		h.bus,
		middleware.GetUserID(ctx),
		middleware.GetSessionID(ctx),
		h.logger,
	)

	idc := identity.New(source, h.roles, h.logger)
	defer idc.Close() //nolint:errcheck

	if err := idc.Start(ctx); err != nil {
		core.InternalServerError(w, err)
		return
	}

	stream, err := realtime.NewStream(w)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-idc.Changes():
			if err := stream.Send("state", state); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.KeepAlive(); err != nil {
				return
			}
		}
	}
}

// failWithNotice renders err with an error notice carrying the error's own
// message, or fallback when there is none to show.
func failWithNotice(w http.ResponseWriter, err error, fallback string) {
	var appErr *core.AppError
	if !errors.As(err, &appErr) {
		appErr = core.NewAppError(err, "an unexpected error occurred", http.StatusInternalServerError, "INTERNAL_ERROR")
		core.JSONError(w, appErr.WithNotice(*core.Failure(fallback, "")))
		return
	}

	message := appErr.Message
	if message == "" || appErr.Code == "VALIDATION_FAILED" {
		message = fallback
	}
	core.JSONError(w, appErr.WithNotice(*core.Failure(message, "")))
}

func providerFailure(provider string) string {
	switch provider {
	case ProviderGoogle:
		return "Failed to sign in with Google"
	case ProviderDiscord:
		return "Failed to sign in with Discord"
	default:
		return "Failed to sign in"
	}
}
