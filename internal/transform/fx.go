package transform

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/transform/repository"
	"github.com/rushi-018/saas-imaging/internal/transform/service"
)

var Module = fx.Module("transform.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
