package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	announcementdomain "github.com/courtsidehq/courtside/internal/announcement/domain"
	assistantdomain "github.com/courtsidehq/courtside/internal/assistant/domain"
	"github.com/courtsidehq/courtside/internal/authorization"
	drilldomain "github.com/courtsidehq/courtside/internal/drill/domain"
	goaldomain "github.com/courtsidehq/courtside/internal/goal/domain"
	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	identityoauth "github.com/courtsidehq/courtside/internal/identity/oauth"
	mediadomain "github.com/courtsidehq/courtside/internal/media/domain"
	notedomain "github.com/courtsidehq/courtside/internal/note/domain"
	practicedomain "github.com/courtsidehq/courtside/internal/practice/domain"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal_error")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrProfileRequired = errors.New("profile_required")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrProfileRequired):
		return http.StatusForbidden, errorPayload{
			Type:    "profile_required",
			Message: "profile setup required",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, assistantdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, assistantdomain.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "assistant is not configured",
		}
	case errors.Is(err, assistantdomain.ErrUpstream):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: "assistant upstream failure",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, identitydomain.ErrWeakPassword),
		errors.Is(err, identitydomain.ErrResetTokenInvalid),
		errors.Is(err, profiledomain.ErrInvalidRole),
		errors.Is(err, drilldomain.ErrInvalidID),
		errors.Is(err, drilldomain.ErrInvalidTitle),
		errors.Is(err, drilldomain.ErrInvalidSkillLevel),
		errors.Is(err, drilldomain.ErrInvalidDuration),
		errors.Is(err, drilldomain.ErrInvalidPageToken),
		errors.Is(err, teamdomain.ErrInvalidID),
		errors.Is(err, teamdomain.ErrInvalidName),
		errors.Is(err, teamdomain.ErrInvalidEmail),
		errors.Is(err, teamdomain.ErrInvalidInviteCode),
		errors.Is(err, practicedomain.ErrInvalidID),
		errors.Is(err, practicedomain.ErrInvalidTitle),
		errors.Is(err, practicedomain.ErrInvalidSchedule),
		errors.Is(err, practicedomain.ErrInvalidDuration),
		errors.Is(err, practicedomain.ErrInvalidDrill),
		errors.Is(err, notedomain.ErrInvalidID),
		errors.Is(err, notedomain.ErrInvalidBody),
		errors.Is(err, goaldomain.ErrInvalidID),
		errors.Is(err, goaldomain.ErrInvalidTitle),
		errors.Is(err, goaldomain.ErrInvalidStatus),
		errors.Is(err, goaldomain.ErrInvalidTransition),
		errors.Is(err, goaldomain.ErrInvalidPercent),
		errors.Is(err, announcementdomain.ErrInvalidID),
		errors.Is(err, announcementdomain.ErrInvalidTitle),
		errors.Is(err, announcementdomain.ErrInvalidBody),
		errors.Is(err, announcementdomain.ErrInvalidTeam),
		errors.Is(err, assistantdomain.ErrInvalidID),
		errors.Is(err, assistantdomain.ErrInvalidPrompt),
		errors.Is(err, mediadomain.ErrInvalidFileName),
		errors.Is(err, mediadomain.ErrInvalidKey),
		errors.Is(err, activitydomain.ErrInvalidAction),
		errors.Is(err, activitydomain.ErrInvalidPageToken),
		errors.Is(err, activitydomain.ErrInvalidTimeRange),
		errors.Is(err, identityoauth.ErrInvalidRequest):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidCredentials),
		errors.Is(err, identitydomain.ErrInvalidSession),
		errors.Is(err, identitydomain.ErrSessionExpired),
		errors.Is(err, identitydomain.ErrSessionRevoked),
		errors.Is(err, identityoauth.ErrUnauthorized),
		errors.Is(err, drilldomain.ErrInvalidActor),
		errors.Is(err, teamdomain.ErrInvalidActor),
		errors.Is(err, practicedomain.ErrInvalidActor),
		errors.Is(err, notedomain.ErrInvalidActor),
		errors.Is(err, goaldomain.ErrInvalidActor),
		errors.Is(err, announcementdomain.ErrInvalidActor),
		errors.Is(err, assistantdomain.ErrInvalidActor),
		errors.Is(err, mediadomain.ErrInvalidActor),
		errors.Is(err, activitydomain.ErrInvalidActor),
		errors.Is(err, authorization.ErrInvalidActor):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, profiledomain.ErrRoleImmutable),
		errors.Is(err, teamdomain.ErrNotMember):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, identitydomain.ErrUserExists),
		errors.Is(err, profiledomain.ErrProfileExists),
		errors.Is(err, teamdomain.ErrAlreadyMember):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, identitydomain.ErrUserNotFound),
		errors.Is(err, profiledomain.ErrProfileNotFound),
		errors.Is(err, drilldomain.ErrNotFound),
		errors.Is(err, teamdomain.ErrNotFound),
		errors.Is(err, practicedomain.ErrNotFound),
		errors.Is(err, notedomain.ErrNotFound),
		errors.Is(err, goaldomain.ErrNotFound),
		errors.Is(err, announcementdomain.ErrNotFound),
		errors.Is(err, assistantdomain.ErrNotFound),
		errors.Is(err, mediadomain.ErrNotFound),
		errors.Is(err, identityoauth.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog tags request-log entries without leaking messages.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", ""
	}
}
