package activity

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/activity/repository"
	"github.com/courtsidehq/courtside/internal/activity/service"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
