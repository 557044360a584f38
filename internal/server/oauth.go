package server

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	identityoauth "github.com/courtsidehq/courtside/internal/identity/oauth"
	"go.uber.org/zap"
)

const (
	oauthStateCookie     = "oauth_state"
	oauthVerifierCookie  = "oauth_code_verifier"
	oauthRedirectCookie  = "oauth_redirect_to"
	oauthStateTTL        = 10 * time.Minute
	oauthErrorRedirectTo = "/login?error=oauth_login"
)

// OAuthLogin kicks off the authorization-code flow for one provider.
func (s *Server) OAuthLogin(c *gin.Context) {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	if provider == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	result, err := s.oauthSvc.RedirectURL(c.Request.Context(), provider, identityoauth.RedirectRequest{
		RedirectURI: s.oauthRedirectURI(provider),
	})
	if err != nil {
		s.handleOAuthError(c, provider, err)
		return
	}

	s.setOAuthCookie(c, oauthStateCookie, result.State)
	if strings.TrimSpace(result.CodeVerifier) != "" {
		s.setOAuthCookie(c, oauthVerifierCookie, result.CodeVerifier)
	}
	if target := sanitizeRedirectPath(c.Query("redirect_to")); target != "" {
		s.setOAuthCookie(c, oauthRedirectCookie, target)
	}

	c.Redirect(http.StatusFound, result.URL)
}

// OAuthCallback finishes the flow: state check, code exchange, then a
// local session for the externally verified identity.
func (s *Server) OAuthCallback(c *gin.Context) {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	if provider == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	if strings.TrimSpace(c.Query("error")) != "" {
		s.clearOAuthCookies(c)
		c.Redirect(http.StatusFound, oauthErrorRedirectTo)
		return
	}

	code := strings.TrimSpace(c.Query("code"))
	state := strings.TrimSpace(c.Query("state"))
	storedState, err := c.Cookie(oauthStateCookie)
	if err != nil || storedState == "" || state == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(storedState)) != 1 {
		s.clearOAuthCookies(c)
		s.handleOAuthError(c, provider, ErrUnauthorized)
		return
	}

	verifier, _ := c.Cookie(oauthVerifierCookie)
	redirectTarget, _ := c.Cookie(oauthRedirectCookie)
	s.clearOAuthCookies(c)

	result, err := s.oauthSvc.Login(c.Request.Context(), provider, identityoauth.LoginRequest{
		Code:         code,
		RedirectURI:  s.oauthRedirectURI(provider),
		CodeVerifier: verifier,
	})
	if err != nil {
		s.handleOAuthError(c, provider, err)
		return
	}

	loginResult, err := s.identitySvc.LoginExternal(c.Request.Context(), identitydomain.ExternalLoginRequest{
		Provider:    result.ProviderName,
		ExternalID:  result.Identity.ExternalID,
		Email:       result.Identity.Email,
		DisplayName: result.Identity.DisplayName,
		AllowSignUp: result.AllowSignUp,
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		s.handleOAuthError(c, provider, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordAuthAttempt(c.Request.Context(), "oauth:"+provider, "success")
	}
	s.sessions.Set(c, loginResult.RawToken, loginResult.ExpiresAt)

	if redirectTarget = sanitizeRedirectPath(redirectTarget); redirectTarget == "" {
		redirectTarget = "/"
	}
	c.Redirect(http.StatusFound, redirectTarget)
}

func (s *Server) oauthRedirectURI(provider string) string {
	return s.cfg.PublicBaseURL + "/callback/" + url.PathEscape(provider)
}

func (s *Server) handleOAuthError(c *gin.Context, provider string, err error) {
	s.log.Warn("oauth login failed", zap.String("provider", provider), zap.Error(err))
	if s.obsMetrics != nil {
		s.obsMetrics.RecordAuthAttempt(c.Request.Context(), "oauth:"+provider, "failure")
	}
	c.Redirect(http.StatusFound, oauthErrorRedirectTo)
}

func (s *Server) setOAuthCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(oauthStateTTL.Seconds()), "/", "", s.cfg.AuthCookieSecure, true)
}

func (s *Server) clearOAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", s.cfg.AuthCookieSecure, true)
	c.SetCookie(oauthVerifierCookie, "", -1, "/", "", s.cfg.AuthCookieSecure, true)
	c.SetCookie(oauthRedirectCookie, "", -1, "/", "", s.cfg.AuthCookieSecure, true)
}

// sanitizeRedirectPath only allows same-site absolute paths.
func sanitizeRedirectPath(raw string) string {
	target := strings.TrimSpace(raw)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return ""
	}
	return target
}
