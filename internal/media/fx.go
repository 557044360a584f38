package media

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/media/service"
	"github.com/courtsidehq/courtside/internal/media/storage"
)

var Module = fx.Module("media.service",
	fx.Provide(storage.NewClient),
	fx.Provide(service.New),
)
