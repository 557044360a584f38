package announcement

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/announcement/repository"
	"github.com/courtsidehq/courtside/internal/announcement/service"
)

var Module = fx.Module("announcement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
