package profile

import (
	"github.com/courtsidehq/courtside/internal/profile/repository"
	"github.com/courtsidehq/courtside/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
