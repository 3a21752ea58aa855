package subscription

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/subscription/repository"
	"github.com/rushi-018/saas-imaging/internal/subscription/service"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
