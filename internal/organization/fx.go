package organization

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/organization/repository"
	"github.com/rushi-018/saas-imaging/internal/organization/service"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
