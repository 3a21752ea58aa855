package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/observability/logger"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/providers/encode"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
)

const logoFolder = "brand-kits"

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	subRepo   subscriptiondomain.Repository
	usageSvc  usagedomain.Service
	evaluator *entitlement.Evaluator
	encoder   encode.Encoder
	genID     *snowflake.Node
	clk       clock.Clock
	metrics   *metrics.Metrics
}

func NewService(
	db *gorm.DB,
	repo domain.Repository,
	subRepo subscriptiondomain.Repository,
	usageSvc usagedomain.Service,
	evaluator *entitlement.Evaluator,
	encoder encode.Encoder,
	genID *snowflake.Node,
	clk clock.Clock,
	m *metrics.Metrics,
) domain.Service {
	return &service{
		db:        db,
		repo:      repo,
		subRepo:   subRepo,
		usageSvc:  usageSvc,
		evaluator: evaluator,
		encoder:   encoder,
		genID:     genID,
		clk:       clk,
		metrics:   m,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateBrandKitRequest) (*domain.BrandKit, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clk.Now()
	kit := domain.BrandKit{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		Name:           name,
		PrimaryColor:   strings.TrimSpace(req.PrimaryColor),
		SecondaryColor: strings.TrimSpace(req.SecondaryColor),
		Font:           strings.TrimSpace(req.Font),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the subscription row so concurrent creates serialize on
		// the count check.
		sub, err := s.subRepo.WithTx(tx).FindByOrgIDForUpdate(ctx, orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return subscriptiondomain.ErrSubscriptionNotFound
			}
			return err
		}

		count, err := s.repo.WithTx(tx).CountByOrg(ctx, orgID)
		if err != nil {
			return err
		}
		if err := s.evaluator.CheckLimit(plan.ID(sub.Plan), entitlement.ResourceBrandKit, count); err != nil {
			if entitlement.IsLimitError(err) {
				s.metrics.RecordGateDenial(ctx, string(entitlement.ResourceBrandKit), "limit")
			}
			return err
		}

		return s.repo.WithTx(tx).Create(ctx, kit)
	})
	if err != nil {
		return nil, err
	}
	return &kit, nil
}

func (s *service) Get(ctx context.Context, kitID snowflake.ID) (*domain.BrandKit, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	kit, err := s.repo.FindByID(ctx, orgID, kitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBrandKitNotFound
		}
		return nil, err
	}
	return kit, nil
}

func (s *service) List(ctx context.Context) ([]domain.BrandKit, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *service) Update(ctx context.Context, kitID snowflake.ID, req domain.UpdateBrandKitRequest) (*domain.BrandKit, error) {
	kit, err := s.Get(ctx, kitID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		kit.Name = name
	}
	if req.PrimaryColor != nil {
		kit.PrimaryColor = strings.TrimSpace(*req.PrimaryColor)
	}
	if req.SecondaryColor != nil {
		kit.SecondaryColor = strings.TrimSpace(*req.SecondaryColor)
	}
	if req.Font != nil {
		kit.Font = strings.TrimSpace(*req.Font)
	}
	kit.UpdatedAt = s.clk.Now()

	if err := s.repo.Update(ctx, *kit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBrandKitNotFound
		}
		return nil, err
	}
	return kit, nil
}

func (s *service) Delete(ctx context.Context, kitID snowflake.ID) error {
	kit, err := s.Get(ctx, kitID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, kit.OrgID, kit.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBrandKitNotFound
		}
		return err
	}

	if kit.LogoPublicID != "" {
		if err := s.encoder.Destroy(ctx, encode.MediaImage, kit.LogoPublicID); err != nil {
			logger.FromContext(ctx).Warn("brand kit logo cleanup failed",
				zap.String("public_id", kit.LogoPublicID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *service) UploadLogo(ctx context.Context, kitID snowflake.ID, req domain.UploadLogoRequest) (*domain.BrandKit, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, domain.ErrInvalidSource
	}

	kit, err := s.repo.FindByID(ctx, orgID, kitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBrandKitNotFound
		}
		return nil, err
	}

	sub, err := s.subRepo.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscriptiondomain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	// Check the balance before paying for an upload that cannot be
	// afforded. The authoritative decrement happens in the transaction
	// below.
	if err := s.evaluator.CheckCredits(entitlement.CreditImage, sub.ImageCredits, sub.CurrentPeriodEnd); err != nil {
		s.metrics.RecordGateDenial(ctx, string(entitlement.CreditImage), "credits")
		return nil, err
	}

	profile, err := s.evaluator.UploadProfile(plan.ID(sub.Plan))
	if err != nil {
		return nil, err
	}

	asset, err := s.encoder.Upload(ctx, encode.MediaImage, source, encode.UploadSpec{
		Folder:    logoFolder,
		Quality:   profile.Quality,
		MaxHeight: profile.MaxHeight,
		CropMode:  profile.CropMode,
	})
	if err != nil {
		s.metrics.RecordEncodeRequest(ctx, string(encode.MediaImage), "error")
		return nil, err
	}
	s.metrics.RecordEncodeRequest(ctx, string(encode.MediaImage), "ok")

	previousLogo := kit.LogoPublicID
	kit.LogoPublicID = asset.PublicID
	kit.LogoURL = asset.URL
	kit.UpdatedAt = s.clk.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := s.subRepo.WithTx(tx).ConsumeCredit(ctx, orgID, subscriptiondomain.ColumnImageCredits, 1)
		if err != nil {
			return err
		}
		if !consumed {
			s.metrics.RecordGateDenial(ctx, string(entitlement.CreditImage), "credits")
			return &entitlement.CreditsExhaustedError{Kind: entitlement.CreditImage, ResetsAt: sub.CurrentPeriodEnd}
		}
		if err := s.repo.WithTx(tx).Update(ctx, *kit); err != nil {
			return err
		}
		return s.usageSvc.RecordTx(ctx, tx, usagedomain.TypeImageUpload)
	})
	if err != nil {
		// The stored asset is orphaned when the commit fails. Remove it
		// so state matches the rolled back transaction.
		if destroyErr := s.encoder.Destroy(ctx, encode.MediaImage, asset.PublicID); destroyErr != nil {
			logger.FromContext(ctx).Warn("orphaned logo cleanup failed",
				zap.String("public_id", asset.PublicID),
				zap.Error(destroyErr))
		}
		return nil, err
	}
	s.metrics.RecordCreditsConsumed(ctx, string(entitlement.CreditImage), 1)

	if previousLogo != "" && previousLogo != asset.PublicID {
		if err := s.encoder.Destroy(ctx, encode.MediaImage, previousLogo); err != nil {
			logger.FromContext(ctx).Warn("previous logo cleanup failed",
				zap.String("public_id", previousLogo),
				zap.Error(err))
		}
	}
	return kit, nil
}

var _ domain.Service = (*service)(nil)
