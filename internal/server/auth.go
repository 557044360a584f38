package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	identityservice "github.com/courtsidehq/courtside/internal/identity/service"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	sessionstate "github.com/courtsidehq/courtside/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Position     string `json:"position"`
}

type ForgotRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.identitySvc.Login(c.Request.Context(), identitydomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordAuthAttempt(c.Request.Context(), "password", "failure")
		}
		AbortWithError(c, err)
		return
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordAuthAttempt(c.Request.Context(), "password", "success")
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": s.snapshotForIdentity(c, result.Identity)})
}

// Register creates the account and, when a role is supplied, the profile in
// the same request so the SPA lands straight on the right dashboard.
func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := profiledomain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if req.Role != "" && !role.Valid() {
		AbortWithError(c, newValidationError("role", "invalid_role", "invalid role"))
		return
	}

	result, err := s.identitySvc.Register(c.Request.Context(), identitydomain.RegisterRequest{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordAuthAttempt(c.Request.Context(), "register", "failure")
		}
		AbortWithError(c, err)
		return
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordAuthAttempt(c.Request.Context(), "register", "success")
	}

	if req.Role != "" {
		if _, err := s.profileSvc.Create(c.Request.Context(), result.Identity.UserID, profiledomain.CreateInput{
			Email:        result.Identity.Email,
			DisplayName:  result.Identity.DisplayName,
			Role:         role,
			Organization: strings.TrimSpace(req.Organization),
			Position:     strings.TrimSpace(req.Position),
		}); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusCreated, gin.H{"data": s.snapshotForIdentity(c, result.Identity)})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.identitySvc.SignOut(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

// Forgot always answers 204 so the endpoint cannot be used to probe for
// registered addresses.
func (s *Server) Forgot(c *gin.Context) {
	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.identitySvc.RequestPasswordReset(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		s.log.Warn("password reset request failed")
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.identitySvc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns one consistent session snapshot: identity, profile (nil during
// setup), loading=false, plus any profile-resolution error in err.
func (s *Server) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.currentSnapshot(c)})
}

// RouteDecision evaluates the role-gated routing for a requested view.
func (s *Server) RouteDecision(c *gin.Context) {
	view := strings.TrimSpace(c.Query("view"))
	if view == "" {
		view = "/"
	}

	var requiredRole *profiledomain.Role
	if raw := strings.ToLower(strings.TrimSpace(c.Query("role"))); raw != "" {
		role := profiledomain.Role(raw)
		if !role.Valid() {
			AbortWithError(c, newValidationError("role", "invalid_role", "invalid role"))
			return
		}
		requiredRole = &role
	}

	decision := sessionstate.Decide(s.currentSnapshot(c), view, requiredRole)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRouteDecision(c.Request.Context(), string(decision.Kind))
	}
	c.JSON(http.StatusOK, gin.H{"data": decision})
}

// StreamSession is the SSE feed of session-state snapshots. Each connection
// gets its own store and coordinator; identity transitions arrive via the
// hub under the session's token hash, and the coordinator's sequence guard
// keeps stale profile lookups from clobbering newer state.
func (s *Server) StreamSession(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	session, err := s.identitySvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	identity, err := s.identitySvc.IdentityForSession(c.Request.Context(), session)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	store := sessionstate.NewStore()
	coord := sessionstate.NewCoordinator(store, s.profileSvc, s.log)
	defer coord.Close()

	snapshots := make(chan sessionstate.Snapshot, 16)
	cancelWatch := store.Watch(func(snap sessionstate.Snapshot) {
		select {
		case snapshots <- snap:
		default:
		}
	})
	defer cancelWatch()

	cancelHub, err := s.hub.Watch(identityservice.HashToken(token), identity, coord.Handle)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer cancelHub()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap := <-snapshots:
			c.SSEvent("state", snap)
			return true
		}
	})
}

type CreateProfileRequest struct {
	Role         string  `json:"role"`
	Organization string  `json:"organization"`
	Position     string  `json:"position"`
	CoachID      *string `json:"coach_id"`
}

type UpdateProfileRequest struct {
	DisplayName  *string `json:"display_name"`
	Organization *string `json:"organization"`
	Position     *string `json:"position"`
	CoachID      *string `json:"coach_id"`
}

func (s *Server) CreateProfile(c *gin.Context) {
	identity, ok := s.identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	coachID, err := parseOptionalSnowflake(req.CoachID)
	if err != nil {
		AbortWithError(c, newValidationError("coach_id", "invalid_coach_id", "invalid coach id"))
		return
	}

	profile, err := s.profileSvc.Create(c.Request.Context(), identity.UserID, profiledomain.CreateInput{
		Email:        identity.Email,
		DisplayName:  identity.DisplayName,
		Role:         profiledomain.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		Organization: strings.TrimSpace(req.Organization),
		Position:     strings.TrimSpace(req.Position),
		CoachID:      coachID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": profile})
}

func (s *Server) UpdateProfile(c *gin.Context) {
	identity, ok := s.identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	coachID, err := parseOptionalSnowflake(req.CoachID)
	if err != nil {
		AbortWithError(c, newValidationError("coach_id", "invalid_coach_id", "invalid coach id"))
		return
	}

	profile, err := s.profileSvc.Update(c.Request.Context(), identity.UserID, profiledomain.UpdatePatch{
		DisplayName:  trimOptionalString(req.DisplayName),
		Organization: trimOptionalString(req.Organization),
		Position:     trimOptionalString(req.Position),
		CoachID:      coachID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// currentSnapshot resolves the caller's state without requiring auth: an
// anonymous caller simply gets an empty, non-loading snapshot.
func (s *Server) currentSnapshot(c *gin.Context) sessionstate.Snapshot {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		return sessionstate.Snapshot{}
	}

	session, err := s.identitySvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		return sessionstate.Snapshot{}
	}
	identity, err := s.identitySvc.IdentityForSession(c.Request.Context(), session)
	if err != nil {
		return sessionstate.Snapshot{}
	}

	return s.snapshotForIdentity(c, identity)
}

func (s *Server) snapshotForIdentity(c *gin.Context, identity *identitydomain.Identity) sessionstate.Snapshot {
	if identity == nil {
		return sessionstate.Snapshot{}
	}

	profile, err := s.profileSvc.Get(c.Request.Context(), identity.UserID)
	switch {
	case err == nil:
		return sessionstate.Snapshot{Identity: identity, Profile: profile}
	case errors.Is(err, profiledomain.ErrProfileNotFound):
		return sessionstate.Snapshot{Identity: identity}
	default:
		return sessionstate.Snapshot{Identity: identity, Err: err.Error()}
	}
}

func parseOptionalSnowflake(value *string) (*snowflake.ID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func trimOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
