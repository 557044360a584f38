package oauth

import "errors"

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrInvalidProvider  = errors.New("provider misconfigured")
	ErrInvalidRequest   = errors.New("invalid oauth request")
	ErrUnauthorized     = errors.New("oauth exchange rejected")
)
