package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	assistantdomain "github.com/courtsidehq/courtside/internal/assistant/domain"
	"github.com/courtsidehq/courtside/internal/authorization"
	drilldomain "github.com/courtsidehq/courtside/internal/drill/domain"
	goaldomain "github.com/courtsidehq/courtside/internal/goal/domain"
	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"invalid credentials", identitydomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"expired session", identitydomain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
		{"revoked session", identitydomain.ErrSessionRevoked, http.StatusUnauthorized, "unauthorized"},
		{"profile required", ErrProfileRequired, http.StatusForbidden, "profile_required"},
		{"authorization denied", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"role immutable", profiledomain.ErrRoleImmutable, http.StatusForbidden, "forbidden"},
		{"duplicate account", identitydomain.ErrUserExists, http.StatusConflict, "conflict"},
		{"already on team", teamdomain.ErrAlreadyMember, http.StatusConflict, "conflict"},
		{"missing drill", drilldomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"missing row", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"assistant throttled", assistantdomain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"assistant unconfigured", assistantdomain.ErrNotConfigured, http.StatusServiceUnavailable, "service_unavailable"},
		{"assistant upstream down", assistantdomain.ErrUpstream, http.StatusBadGateway, "upstream_error"},
		{"unknown error", gorm.ErrInvalidTransaction, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.typ, payload.Type)
		})
	}
}

func TestMapErrorValidation(t *testing.T) {
	status, payload := mapError(newValidationError("title", "invalid_title", "invalid title"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "title", payload.Errors[0].Field)
	}

	// Domain sentinels that describe bad input also map to 400.
	status, payload = mapError(goaldomain.ErrInvalidPercent)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, typ := classifyErrorForLog(identitydomain.ErrInvalidCredentials)
	assert.Equal(t, "client_error", kind)
	assert.Equal(t, "unauthorized", typ)

	kind, typ = classifyErrorForLog(gorm.ErrInvalidTransaction)
	assert.Equal(t, "server_error", kind)
	assert.Equal(t, "internal_error", typ)
}
