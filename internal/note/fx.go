package note

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/note/repository"
	"github.com/courtsidehq/courtside/internal/note/service"
)

var Module = fx.Module("note.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
