package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

const (
	contextIdentityKey = "auth_identity"
	contextProfileKey  = "auth_profile"
)

// WebAuthRequired authenticates the session cookie and loads the caller's
// identity. The profile is resolved when present; routes that need one add
// ProfileRequired on top.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
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

		c.Set(contextIdentityKey, identity)

		profile, err := s.profileSvc.Get(c.Request.Context(), identity.UserID)
		if err != nil && !errors.Is(err, profiledomain.ErrProfileNotFound) {
			AbortWithError(c, err)
			return
		}
		if profile != nil {
			c.Set(contextProfileKey, profile)
			ctx := principalctx.WithPrincipal(c.Request.Context(), principalctx.Principal{
				UserID: identity.UserID,
				Role:   profile.Role,
			})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// ProfileRequired rejects callers who have not completed profile setup.
func (s *Server) ProfileRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.profileFromContext(c); !ok {
			AbortWithError(c, ErrProfileRequired)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireRole(roles ...profiledomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := s.profileFromContext(c)
		if !ok {
			AbortWithError(c, ErrProfileRequired)
			return
		}
		for _, role := range roles {
			if profile.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// authorizeAction consults the policy engine for the caller's role.
func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalctx.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), principal, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) identityFromContext(c *gin.Context) (*identitydomain.Identity, bool) {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*identitydomain.Identity)
	return identity, ok && identity != nil
}

func (s *Server) profileFromContext(c *gin.Context) (*profiledomain.Profile, bool) {
	value, ok := c.Get(contextProfileKey)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*profiledomain.Profile)
	return profile, ok && profile != nil
}
