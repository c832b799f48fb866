package catalog

import (
	"github.com/brightstack/coursekart/internal/catalog/repository"
	"github.com/brightstack/coursekart/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
