package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/courtsidehq/courtside/internal/clock"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/identity/domain"
	"github.com/courtsidehq/courtside/internal/identity/hub"
	"github.com/courtsidehq/courtside/internal/providers/email"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	resetTokenBytes = 32
	resetTokenTTL   = 30 * time.Minute

	minPasswordLength = 8
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Cfg           config.Config
	Repo          domain.Repository
	SessionRepo   domain.SessionRepository
	ResetRepo     domain.ResetTokenRepository
	GenID         *snowflake.Node
	Hub           *hub.Hub
	EmailProvider email.Provider
	Clock         clock.Clock
}

type Service struct {
	log         *zap.Logger
	cfg         config.Config
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	resetRepo   domain.ResetTokenRepository
	genID       *snowflake.Node
	hub         *hub.Hub
	email       email.Provider
	clock       clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("identity.service"),
		cfg:         p.Cfg,
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		resetRepo:   p.ResetRepo,
		genID:       p.GenID,
		hub:         p.Hub,
		email:       p.EmailProvider,
		clock:       p.Clock,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.repo.FindOne(ctx, domain.User{Email: email}); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	user := &domain.User{
		ID:                  s.genID.Generate(),
		ExternalID:          uuid.NewString(),
		Provider:            "local",
		Email:               email,
		DisplayName:         displayName,
		PasswordHash:        &hashed,
		LastPasswordChanged: &now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.openSession(ctx, user, req.UserAgent, req.IPAddress)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: email, Provider: "local"})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil || !verifyPassword(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, user, req.UserAgent, req.IPAddress)
}

func (s *Service) LoginExternal(ctx context.Context, req domain.ExternalLoginRequest) (*domain.LoginResult, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, domain.ErrInvalidCredentials
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrUserNotFound) {
		if !req.AllowSignUp {
			return nil, domain.ErrInvalidCredentials
		}
		displayName := strings.TrimSpace(req.DisplayName)
		if displayName == "" {
			displayName = defaultDisplayName(email)
		}
		user = &domain.User{
			ID:          s.genID.Generate(),
			ExternalID:  externalID,
			Provider:    strings.ToLower(strings.TrimSpace(req.Provider)),
			Email:       email,
			DisplayName: displayName,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.Info("user provisioned from provider",
			zap.String("user_id", user.ID.String()),
			zap.String("provider", user.Provider),
		)
	} else if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user, req.UserAgent, req.IPAddress)
}

func (s *Service) SignOut(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	tokenHash := hashToken(token)
	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	now := s.clock.Now().UTC()
	if err := s.sessionRepo.RevokeSession(ctx, session.ID, now); err != nil {
		return err
	}

	s.hub.Publish(tokenHash, hub.Transition{})
	return nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) IdentityForSession(ctx context.Context, session *domain.Session) (*domain.Identity, error) {
	if session == nil {
		return nil, domain.ErrInvalidSession
	}
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return identityOf(user), nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, rawEmail string) error {
	addr, err := normalizeEmail(rawEmail)
	if err != nil {
		// Do not reveal whether the address exists.
		return nil
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: addr, Provider: "local"})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	rawToken, err := newRandomToken(resetTokenBytes)
	if err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	token := &domain.PasswordResetToken{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.CreateResetToken(ctx, token); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicBaseURL, rawToken)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>A password reset was requested for your account. The link below is valid for 30 minutes.</p><p><a href=%q>Reset your password</a></p>`, user.DisplayName, resetURL)
	if err := s.email.Send(ctx, []string{user.Email}, "Reset your Courtside password", body); err != nil {
		s.log.Warn("reset email send failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrResetTokenInvalid
	}
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	record, err := s.resetRepo.GetResetTokenByHash(ctx, hashToken(token))
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	if record.UsedAt != nil || now.After(record.ExpiresAt) {
		return domain.ErrResetTokenInvalid
	}
	if err := s.resetRepo.MarkResetTokenUsed(ctx, record.ID, now); err != nil {
		return err
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"password_hash":         hashed,
		"last_password_changed": &now,
		"updated_at":            now,
	}
	if err := s.repo.UpdateFields(ctx, record.UserID, fields); err != nil {
		return err
	}

	// A password change invalidates every open session for the user.
	hashes, err := s.sessionRepo.RevokeUserSessions(ctx, record.UserID, now)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		s.hub.Publish(h, hub.Transition{})
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, user *domain.User, userAgent, ipAddress string) (*domain.LoginResult, error) {
	rawToken, err := newRandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(userAgent),
		IPAddress:        strings.TrimSpace(ipAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		Identity:  identityOf(user),
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func identityOf(user *domain.User) *domain.Identity {
	return &domain.Identity{
		UserID:      user.ID,
		ExternalID:  user.ExternalID,
		Provider:    user.Provider,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}

func newRandomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// HashToken exposes the session key derivation for stream subscribers.
func HashToken(raw string) string {
	return hashToken(raw)
}

// HashPassword exposes the credential hasher for startup seeding.
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", argonMemory, argonTime, argonThreads, saltB64, hashB64), nil
}

func verifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return false
	}

	var memory uint32
	var timeCost uint32
	var threads uint8
	{
		params := strings.Split(parts[3], ",")
		if len(params) != 3 {
			return false
		}

		m, ok := strings.CutPrefix(params[0], "m=")
		if !ok {
			return false
		}
		t, ok := strings.CutPrefix(params[1], "t=")
		if !ok {
			return false
		}
		p, ok := strings.CutPrefix(params[2], "p=")
		if !ok {
			return false
		}

		m64, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			return false
		}
		t64, err := strconv.ParseUint(t, 10, 32)
		if err != nil {
			return false
		}
		p64, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return false
		}

		memory = uint32(m64)
		timeCost = uint32(t64)
		threads = uint8(p64)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	check := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1
}
