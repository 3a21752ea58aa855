package usage

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/usage/repository"
	"github.com/rushi-018/saas-imaging/internal/usage/service"
)

var Module = fx.Module("usage.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
