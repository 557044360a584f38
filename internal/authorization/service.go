package authorization

import (
	"context"
	"errors"

	"github.com/courtsidehq/courtside/internal/principalctx"
)

// Service answers "may this principal perform this action on this object".
type Service interface {
	Authorize(ctx context.Context, principal principalctx.Principal, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
