package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	LoginExternal(ctx context.Context, req ExternalLoginRequest) (*LoginResult, error)
	SignOut(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	IdentityForSession(ctx context.Context, session *Session) (*Identity, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
	UserAgent   string
	IPAddress   string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// ExternalLoginRequest carries a verified identity from an OAuth provider.
type ExternalLoginRequest struct {
	Provider    string
	ExternalID  string
	Email       string
	DisplayName string
	AllowSignUp bool
	UserAgent   string
	IPAddress   string
}

type LoginResult struct {
	Identity  *Identity
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
