// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type RegisterRequest struct {
	Email      string `json:"email"       validate:"required,email,max=255"`
	Password   string `json:"password"    validate:"required,min=6,max=128"`
	FullName   string `json:"full_name"   validate:"required,min=1,max=100"`
	RedirectTo string `json:"redirect_to" validate:"omitempty,max=512"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
	Tokens  TokenResponse   `json:"tokens"`
}

// CurrentSessionResponse has nil User and Session when signed out.
type CurrentSessionResponse struct {
	User    *UserResponse    `json:"user"`
	Session *SessionResponse `json:"session"`
	IsAdmin bool             `json:"is_admin"`
}

// SessionInfo is one signed-in device. ID is the refresh-token family, so
// it survives rotation; Current marks the caller's own session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Current   bool      `json:"current"`
	Device    string    `json:"user_agent"`
	IP        string    `json:"ip_address"`
	SignedIn  time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=128"`
}

type OAuthStartResponse struct {
	URL string `json:"url"`
}

// AuthEvent is published on the user's auth topic whenever their session
// state changes.
type AuthEvent struct {
	Kind      string `json:"kind"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}
