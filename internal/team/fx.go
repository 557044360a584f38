package team

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/team/repository"
	"github.com/courtsidehq/courtside/internal/team/service"
)

var Module = fx.Module("team.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
