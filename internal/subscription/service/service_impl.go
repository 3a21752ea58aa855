package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/subscription/domain"
)

// FreePeriodDays is the rolling period length applied to the free tier,
// which has no provider-driven billing cycle.
const FreePeriodDays = 30

type service struct {
	db      *gorm.DB
	repo    domain.Repository
	catalog *plan.CatalogHolder
	genID   *snowflake.Node
	clk     clock.Clock
	metrics *metrics.Metrics
}

func NewService(db *gorm.DB, repo domain.Repository, catalog *plan.CatalogHolder, genID *snowflake.Node, clk clock.Clock, m *metrics.Metrics) domain.Service {
	return &service{
		db:      db,
		repo:    repo,
		catalog: catalog,
		genID:   genID,
		clk:     clk,
		metrics: m,
	}
}

func (s *service) ProvisionTx(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, now time.Time) error {
	free := s.catalog.Get().Default()

	sub := domain.Subscription{
		ID:     s.genID.Generate(),
		OrgID:  orgID,
		Status: domain.StatusActive,

		CreatedAt: now,
		UpdatedAt: now,
	}
	domain.ApplyPlan(&sub, free, now, now.AddDate(0, 0, FreePeriodDays))

	return s.repo.WithTx(tx).Create(ctx, sub)
}

func (s *service) Get(ctx context.Context) (*domain.SubscriptionResponse, error) {
	sub, err := s.findCallerSubscription(ctx)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(sub)
	for _, p := range s.catalog.Get().Plans {
		resp.Plans = append(resp.Plans, domain.PlanOption{
			Plan:    p,
			Current: string(p.ID) == sub.Plan,
		})
	}
	return resp, nil
}

func (s *service) Cancel(ctx context.Context) (*domain.SubscriptionResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	free := s.catalog.Get().Default()
	now := s.clk.Now()

	var updated *domain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindByOrgIDForUpdate(ctx, orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSubscriptionNotFound
			}
			return err
		}
		if sub.Plan == string(plan.Free) {
			return domain.ErrAlreadyFree
		}

		domain.ApplyPlan(sub, free, now, now.AddDate(0, 0, FreePeriodDays))
		sub.ProviderSubscriptionID = ""
		sub.UpdatedAt = now

		if err := repo.Update(ctx, *sub); err != nil {
			return err
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(updated), nil
}

func (s *service) findCallerSubscription(ctx context.Context) (*domain.Subscription, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	sub, err := s.repo.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *service) toResponse(sub *domain.Subscription) *domain.SubscriptionResponse {
	resp := &domain.SubscriptionResponse{
		ID:                 sub.ID.String(),
		Plan:               sub.Plan,
		PlanName:           sub.Plan,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		VideoCredits:       sub.VideoCredits,
		ImageCredits:       sub.ImageCredits,
		StorageLimitGB:     sub.StorageLimitGB,
	}
	if p, err := s.catalog.Get().Get(plan.ID(sub.Plan)); err == nil {
		resp.PlanName = p.Name
		resp.VideoAllowance = p.Credits.Video
		resp.ImageAllowance = p.Credits.Image
	}
	return resp
}
