package brandkit

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/brandkit/repository"
	"github.com/rushi-018/saas-imaging/internal/brandkit/service"
)

var Module = fx.Module("brandkit.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
