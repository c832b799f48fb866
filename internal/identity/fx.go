package identity

import (
	"github.com/brightstack/coursekart/internal/identity/repository"
	"github.com/brightstack/coursekart/internal/identity/service"
	"github.com/brightstack/coursekart/internal/identity/session"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
