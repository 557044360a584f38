package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/clock"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/identity/domain"
	"github.com/courtsidehq/courtside/internal/identity/hub"
	"github.com/courtsidehq/courtside/internal/identity/repository"
	"github.com/courtsidehq/courtside/internal/providers/email"
	"github.com/courtsidehq/courtside/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.PasswordResetToken{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo, resetRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log:           zap.NewNop(),
		Cfg:           config.Config{PublicBaseURL: "http://localhost:8080"},
		Repo:          repo,
		SessionRepo:   sessionRepo,
		ResetRepo:     resetRepo,
		GenID:         node,
		Hub:           hub.New(),
		EmailProvider: &email.NoOpProvider{},
		Clock:         fake,
	})
	return svc, fake
}

func TestRegisterAssignsLocalProvider(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "Coach@Example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Identity.Provider != "local" {
		t.Fatalf("expected provider local, got %s", result.Identity.Provider)
	}
	if result.Identity.Email != "coach@example.com" {
		t.Fatalf("expected lowercased email, got %s", result.Identity.Email)
	}
	if result.Identity.DisplayName != "coach" {
		t.Fatalf("expected display name derived from email, got %s", result.Identity.DisplayName)
	}
	if _, err := uuid.Parse(result.Identity.ExternalID); err != nil {
		t.Fatalf("expected external id UUID, got %v", err)
	}
	if result.RawToken == "" {
		t.Fatal("expected session token")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "short",
	})
	if err != domain.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	req := domain.RegisterRequest{Email: "coach@example.com", Password: "strong-password"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "coach@example.com",
		Password: "wrong-password",
	})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.UserID != result.Identity.UserID {
		t.Fatalf("session belongs to %v, want %v", session.UserID, result.Identity.UserID)
	}

	identity, err := svc.IdentityForSession(context.Background(), session)
	if err != nil {
		t.Fatalf("identity for session: %v", err)
	}
	if identity.Email != "coach@example.com" {
		t.Fatalf("unexpected email %s", identity.Email)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, fake := newTestService(t)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	fake.Advance(sessionTTL + time.Minute)

	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != domain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.SignOut(context.Background(), result.RawToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != domain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestLoginExternalProvisionsUser(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.LoginExternal(context.Background(), domain.ExternalLoginRequest{
		Provider:    "Google",
		ExternalID:  "google-oauth2|12345",
		Email:       "player@example.com",
		DisplayName: "Point Guard",
		AllowSignUp: true,
	})
	if err != nil {
		t.Fatalf("login external: %v", err)
	}
	if result.Identity.Provider != "google" {
		t.Fatalf("expected provider google, got %s", result.Identity.Provider)
	}

	// A second login with the same external id reuses the account.
	again, err := svc.LoginExternal(context.Background(), domain.ExternalLoginRequest{
		Provider:    "google",
		ExternalID:  "google-oauth2|12345",
		Email:       "player@example.com",
		AllowSignUp: false,
	})
	if err != nil {
		t.Fatalf("login external again: %v", err)
	}
	if again.Identity.UserID != result.Identity.UserID {
		t.Fatalf("expected same user, got %v and %v", again.Identity.UserID, result.Identity.UserID)
	}
}

func TestLoginExternalUnknownWithoutSignUp(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.LoginExternal(context.Background(), domain.ExternalLoginRequest{
		Provider:    "google",
		ExternalID:  "google-oauth2|nobody",
		Email:       "nobody@example.com",
		AllowSignUp: false,
	})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc, fake := newTestService(t)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "original-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	impl := svc.(*Service)
	rawToken, err := newRandomToken(resetTokenBytes)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	now := fake.Now()
	if err := impl.resetRepo.CreateResetToken(context.Background(), &domain.PasswordResetToken{
		ID:        impl.genID.Generate(),
		UserID:    result.Identity.UserID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("create reset token: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), rawToken, "replacement-password"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Old session is gone, old password no longer works, new one does.
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != domain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "coach@example.com",
		Password: "original-password",
	}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "coach@example.com",
		Password: "replacement-password",
	}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	svc, fake := newTestService(t)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "coach@example.com",
		Password: "original-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	impl := svc.(*Service)
	rawToken, err := newRandomToken(resetTokenBytes)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	now := fake.Now()
	if err := impl.resetRepo.CreateResetToken(context.Background(), &domain.PasswordResetToken{
		ID:        impl.genID.Generate(),
		UserID:    result.Identity.UserID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("create reset token: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), rawToken, "replacement-password"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), rawToken, "another-password"); err != domain.ErrResetTokenInvalid {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}
