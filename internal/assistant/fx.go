package assistant

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/assistant/repository"
	"github.com/courtsidehq/courtside/internal/assistant/service"
)

var Module = fx.Module("assistant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
