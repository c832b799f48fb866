package settlement

import (
	"github.com/brightstack/coursekart/internal/settlement/repository"
	"github.com/brightstack/coursekart/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
