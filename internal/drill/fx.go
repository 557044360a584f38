package drill

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/drill/repository"
	"github.com/courtsidehq/courtside/internal/drill/service"
)

var Module = fx.Module("drill.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
