package identity

import (
	identityconfig "github.com/courtsidehq/courtside/internal/identity/config"
	"github.com/courtsidehq/courtside/internal/identity/hub"
	"github.com/courtsidehq/courtside/internal/identity/oauth"
	"github.com/courtsidehq/courtside/internal/identity/repository"
	"github.com/courtsidehq/courtside/internal/identity/service"
	"github.com/courtsidehq/courtside/internal/identity/session"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(hub.New),
	fx.Provide(session.NewManager),
	fx.Provide(oauth.NewService),
	fx.Provide(identityconfig.ParseAuthProvidersFromEnv),
	fx.Provide(identityconfig.BuildAuthProviderRegistry),
	fx.Invoke(ensureAuthProviderRegistry),
)

func ensureAuthProviderRegistry(_ identityconfig.AuthProviderRegistry) {}
