package goal

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/goal/repository"
	"github.com/courtsidehq/courtside/internal/goal/service"
)

var Module = fx.Module("goal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
