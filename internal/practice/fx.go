package practice

import (
	"go.uber.org/fx"

	"github.com/courtsidehq/courtside/internal/practice/repository"
	"github.com/courtsidehq/courtside/internal/practice/service"
)

var Module = fx.Module("practice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
