package billing

import (
	"go.uber.org/fx"

	"github.com/rushi-018/saas-imaging/internal/billing/domain"
	"github.com/rushi-018/saas-imaging/internal/billing/repository"
	"github.com/rushi-018/saas-imaging/internal/billing/service"
	"github.com/rushi-018/saas-imaging/internal/billing/stripe"
	"github.com/rushi-018/saas-imaging/internal/config"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(newAdapter),
	fx.Provide(newCheckoutClient),
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
)

func newAdapter(cfg config.Config) *stripe.Adapter {
	return stripe.NewAdapter(cfg.StripeWebhookSecret)
}

func newCheckoutClient(cfg config.Config) *stripe.CheckoutClient {
	return stripe.NewCheckoutClient(cfg.StripeSecretKey)
}
