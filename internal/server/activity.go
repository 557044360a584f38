package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

func (s *Server) ListActivity(c *gin.Context) {
	var req activitydomain.ListActivityRequest
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if raw := strings.TrimSpace(c.Query("actor_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("actor_id", "invalid_actor_id", "invalid actor id"))
			return
		}
		req.ActorID = id
	}
	req.Action = strings.TrimSpace(c.Query("action"))
	req.TargetType = strings.TrimSpace(c.Query("target_type"))
	req.TargetID = strings.TrimSpace(c.Query("target_id"))

	startAt, err := parseTimeQuery(c, "start_at")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endAt, err := parseTimeQuery(c, "end_at")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	req.StartAt = startAt
	req.EndAt = endAt

	// Players only ever see their own trail regardless of the filter they ask
	// for; everyone else defaults to their own when no actor is named.
	if principal, ok := principalctx.FromContext(c.Request.Context()); ok {
		if principal.Role == profiledomain.RolePlayer || req.ActorID == 0 {
			req.ActorID = principal.UserID
		}
	}

	resp, err := s.activitySvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, newValidationError(name, "invalid_timestamp", "must be an RFC 3339 timestamp")
	}

	return &t, nil
}
