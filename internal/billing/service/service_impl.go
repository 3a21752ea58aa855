package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/billing/domain"
	"github.com/rushi-018/saas-imaging/internal/billing/stripe"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/config"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/plan"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
)

// fallbackPeriodMonths is used when a checkout completes before the
// provider reports the exact billing window; the first invoice corrects
// the period.
const fallbackPeriodMonths = 1

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	Clk      clock.Clock
	Catalog  *plan.CatalogHolder
	Repo     domain.Repository
	SubRepo  subscriptiondomain.Repository
	Adapter  *stripe.Adapter
	Checkout *stripe.CheckoutClient
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	genID    *snowflake.Node
	clk      clock.Clock
	catalog  *plan.CatalogHolder
	repo     domain.Repository
	subRepo  subscriptiondomain.Repository
	adapter  *stripe.Adapter
	checkout *stripe.CheckoutClient
	metrics  *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		cfg:      p.Cfg,
		genID:    p.GenID,
		clk:      p.Clk,
		catalog:  p.Catalog,
		repo:     p.Repo,
		subRepo:  p.SubRepo,
		adapter:  p.Adapter,
		checkout: p.Checkout,
		metrics:  p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.adapter.Verify(payload, headers.Get("Stripe-Signature")); err != nil {
		return err
	}

	event, err := s.adapter.Parse(payload)
	if err != nil {
		return err
	}

	return s.ProcessEvent(ctx, event, payload)
}

// ProcessEvent records the event for idempotency, applies it to the
// organization's subscription, and marks it processed.
func (s *Service) ProcessEvent(ctx context.Context, event *domain.Event, payload []byte) error {
	if event == nil {
		return domain.ErrInvalidEvent
	}
	event.Provider = strings.ToLower(strings.TrimSpace(event.Provider))
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.Provider == "" || event.ProviderEventID == "" || event.Type == "" {
		return domain.ErrInvalidEvent
	}
	if !json.Valid(payload) {
		return domain.ErrInvalidPayload
	}

	now := s.clk.Now()
	record := domain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       string(event.Type),
		OrgID:           event.OrgID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &record)
	if err != nil {
		return err
	}
	stored := &record
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return domain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return domain.ErrEventAlreadyProcessed
		}
	}

	if err := s.apply(ctx, event); err != nil {
		if errors.Is(err, domain.ErrUnknownSubscription) {
			// Events for subscriptions this deployment never issued are
			// acknowledged so the provider stops redelivering them.
			s.log.Warn("billing event matched no local subscription",
				zap.String("provider", event.Provider),
				zap.String("event_type", string(event.Type)),
				zap.String("provider_subscription_id", event.ProviderSubscriptionID),
			)
			return s.repo.MarkProcessed(ctx, s.db, stored.ID, s.clk.Now())
		}
		if markErr := s.repo.MarkFailed(ctx, s.db, stored.ID, err.Error()); markErr != nil {
			s.log.Error("failed to record billing event error", zap.Error(markErr))
		}
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, s.clk.Now()); err != nil {
		return err
	}

	s.metrics.RecordBillingEvent(ctx, event.Provider, string(event.Type))
	return nil
}

func (s *Service) apply(ctx context.Context, event *domain.Event) error {
	switch event.Type {
	case domain.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)
	case domain.EventInvoicePaid:
		return s.applyInvoicePaid(ctx, event)
	case domain.EventPaymentFailed:
		return s.applyPaymentFailed(ctx, event)
	case domain.EventSubscriptionUpdated:
		return s.applySubscriptionUpdated(ctx, event)
	case domain.EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, event)
	default:
		return domain.ErrEventIgnored
	}
}

// applyCheckoutCompleted is the authoritative plan change: the purchased
// plan comes from checkout metadata, never inferred from amounts.
func (s *Service) applyCheckoutCompleted(ctx context.Context, event *domain.Event) error {
	purchased, err := s.catalog.Get().Get(plan.ID(event.PlanID))
	if err != nil {
		return err
	}
	if event.OrgID == 0 {
		return domain.ErrInvalidEvent
	}

	start := event.PeriodStart
	end := event.PeriodEnd
	if start.IsZero() || end.IsZero() {
		start = event.OccurredAt
		end = start.AddDate(0, fallbackPeriodMonths, 0)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)

		sub, err := repo.FindByOrgIDForUpdate(ctx, event.OrgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUnknownSubscription
			}
			return err
		}

		subscriptiondomain.ApplyPlan(sub, purchased, start, end)
		sub.ProviderCustomerID = event.ProviderCustomerID
		sub.ProviderSubscriptionID = event.ProviderSubscriptionID
		sub.UpdatedAt = s.clk.Now()

		return repo.Update(ctx, *sub)
	})
}

// applyInvoicePaid rolls the billing period and restores the allowance
// for the plan already stored on the subscription.
func (s *Service) applyInvoicePaid(ctx context.Context, event *domain.Event) error {
	return s.withProviderSubscription(ctx, event, func(tx *gorm.DB, repo subscriptiondomain.Repository, sub *subscriptiondomain.Subscription) error {
		current, err := s.catalog.Get().Get(plan.ID(sub.Plan))
		if err != nil {
			return err
		}

		start := event.PeriodStart
		end := event.PeriodEnd
		if start.IsZero() || end.IsZero() {
			start = event.OccurredAt
			end = start.AddDate(0, fallbackPeriodMonths, 0)
		}

		next, err := domain.NextStatus(sub.Status, event.Type)
		if err != nil {
			return err
		}

		subscriptiondomain.RollPeriod(sub, current, start, end)
		sub.Status = next
		sub.UpdatedAt = s.clk.Now()
		return repo.Update(ctx, *sub)
	})
}

func (s *Service) applyPaymentFailed(ctx context.Context, event *domain.Event) error {
	return s.withProviderSubscription(ctx, event, func(tx *gorm.DB, repo subscriptiondomain.Repository, sub *subscriptiondomain.Subscription) error {
		next, err := domain.NextStatus(sub.Status, event.Type)
		if err != nil {
			return err
		}
		sub.Status = next
		sub.UpdatedAt = s.clk.Now()
		return repo.Update(ctx, *sub)
	})
}

func (s *Service) applySubscriptionUpdated(ctx context.Context, event *domain.Event) error {
	return s.withProviderSubscription(ctx, event, func(tx *gorm.DB, repo subscriptiondomain.Repository, sub *subscriptiondomain.Subscription) error {
		sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd
		if !event.PeriodStart.IsZero() && !event.PeriodEnd.IsZero() {
			sub.CurrentPeriodStart = event.PeriodStart
			sub.CurrentPeriodEnd = event.PeriodEnd
		}
		sub.UpdatedAt = s.clk.Now()
		return repo.Update(ctx, *sub)
	})
}

// applySubscriptionDeleted reverts the organization to the free tier so
// it is never left without an entitlement baseline.
func (s *Service) applySubscriptionDeleted(ctx context.Context, event *domain.Event) error {
	free := s.catalog.Get().Default()
	now := s.clk.Now()

	return s.withProviderSubscription(ctx, event, func(tx *gorm.DB, repo subscriptiondomain.Repository, sub *subscriptiondomain.Subscription) error {
		subscriptiondomain.ApplyPlan(sub, free, now, now.AddDate(0, 0, 30))
		sub.ProviderSubscriptionID = ""
		sub.UpdatedAt = now
		return repo.Update(ctx, *sub)
	})
}

func (s *Service) withProviderSubscription(
	ctx context.Context,
	event *domain.Event,
	fn func(tx *gorm.DB, repo subscriptiondomain.Repository, sub *subscriptiondomain.Subscription) error,
) error {
	if strings.TrimSpace(event.ProviderSubscriptionID) == "" {
		return domain.ErrInvalidEvent
	}

	located, err := s.subRepo.FindByProviderSubscriptionID(ctx, event.ProviderSubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUnknownSubscription
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		sub, err := repo.FindByOrgIDForUpdate(ctx, located.OrgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUnknownSubscription
			}
			return err
		}
		return fn(tx, repo, sub)
	})
}

func (s *Service) CreateCheckout(ctx context.Context, planID plan.ID) (string, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return "", subscriptiondomain.ErrInvalidOrganization
	}

	requested, err := s.catalog.Get().Get(planID)
	if err != nil {
		return "", err
	}
	if requested.PriceCents == 0 {
		return "", domain.ErrFreePlanCheckout
	}

	sub, err := s.subRepo.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", subscriptiondomain.ErrSubscriptionNotFound
		}
		return "", err
	}

	sessionURL, err := s.checkout.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		OrgID:      orgID.String(),
		Plan:       requested,
		CustomerID: sub.ProviderCustomerID,
		SuccessURL: s.cfg.AppBaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.AppBaseURL + "/billing/cancel",
	})
	if err != nil {
		return "", err
	}

	s.metrics.RecordCheckoutSession(ctx, string(planID))
	return sessionURL, nil
}

var _ domain.Service = (*Service)(nil)
