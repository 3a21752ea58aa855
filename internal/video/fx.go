package video

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/video/repository"
	"github.com/rushi-018/saas-imaging/internal/video/service"
)

var Module = fx.Module("video.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
