package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	brandkitdomain "github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/observability/logger"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/providers/encode"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
	"github.com/rushi-018/saas-imaging/internal/video/domain"
)

const videoFolder = "videos"

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	subRepo   subscriptiondomain.Repository
	kitRepo   brandkitdomain.Repository
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
	kitRepo brandkitdomain.Repository,
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
		kitRepo:   kitRepo,
		usageSvc:  usageSvc,
		evaluator: evaluator,
		encoder:   encoder,
		genID:     genID,
		clk:       clk,
		metrics:   m,
	}
}

func (s *service) Upload(ctx context.Context, req domain.UploadVideoRequest) (*domain.Video, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	userID, ok := orgcontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, domain.ErrInvalidSource
	}

	var kitID *snowflake.ID
	if req.BrandKitID != nil && strings.TrimSpace(*req.BrandKitID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.BrandKitID))
		if err != nil {
			return nil, domain.ErrInvalidBrandKit
		}
		if _, err := s.kitRepo.FindByID(ctx, orgID, parsed); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrInvalidBrandKit
			}
			return nil, err
		}
		kitID = &parsed
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
	if err := s.evaluator.CheckCredits(entitlement.CreditVideo, sub.VideoCredits, sub.CurrentPeriodEnd); err != nil {
		s.metrics.RecordGateDenial(ctx, string(entitlement.CreditVideo), "credits")
		return nil, err
	}

	profile, err := s.evaluator.UploadProfile(plan.ID(sub.Plan))
	if err != nil {
		return nil, err
	}

	asset, err := s.encoder.Upload(ctx, encode.MediaVideo, source, encode.UploadSpec{
		Folder:    videoFolder,
		Quality:   profile.Quality,
		MaxHeight: profile.MaxHeight,
		CropMode:  profile.CropMode,
	})
	if err != nil {
		s.metrics.RecordEncodeRequest(ctx, string(encode.MediaVideo), "error")
		return nil, err
	}
	s.metrics.RecordEncodeRequest(ctx, string(encode.MediaVideo), "ok")

	now := s.clk.Now()
	video := domain.Video{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		UserID:          userID,
		BrandKitID:      kitID,
		Title:           title,
		PublicID:        asset.PublicID,
		URL:             asset.URL,
		Bytes:           asset.Bytes,
		Width:           asset.Width,
		Height:          asset.Height,
		DurationSeconds: asset.Duration,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := s.subRepo.WithTx(tx).ConsumeCredit(ctx, orgID, subscriptiondomain.ColumnVideoCredits, 1)
		if err != nil {
			return err
		}
		if !consumed {
			s.metrics.RecordGateDenial(ctx, string(entitlement.CreditVideo), "credits")
			return &entitlement.CreditsExhaustedError{Kind: entitlement.CreditVideo, ResetsAt: sub.CurrentPeriodEnd}
		}
		if err := s.repo.WithTx(tx).Create(ctx, video); err != nil {
			return err
		}
		return s.usageSvc.RecordTx(ctx, tx, usagedomain.TypeVideoUpload)
	})
	if err != nil {
		// The stored asset is orphaned when the commit fails. Remove it
		// so state matches the rolled back transaction.
		if destroyErr := s.encoder.Destroy(ctx, encode.MediaVideo, asset.PublicID); destroyErr != nil {
			logger.FromContext(ctx).Warn("orphaned video cleanup failed",
				zap.String("public_id", asset.PublicID),
				zap.Error(destroyErr))
		}
		return nil, err
	}
	s.metrics.RecordCreditsConsumed(ctx, string(entitlement.CreditVideo), 1)

	return &video, nil
}

func (s *service) Get(ctx context.Context, videoID snowflake.ID) (*domain.Video, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	video, err := s.repo.FindByID(ctx, orgID, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

func (s *service) List(ctx context.Context) ([]domain.Video, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *service) Delete(ctx context.Context, videoID snowflake.ID) error {
	video, err := s.Get(ctx, videoID)
	if err != nil {
		return err
	}

	// Transform rows cascade with the video row.
	if err := s.repo.Delete(ctx, video.OrgID, video.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrVideoNotFound
		}
		return err
	}

	if err := s.encoder.Destroy(ctx, encode.MediaVideo, video.PublicID); err != nil {
		logger.FromContext(ctx).Warn("remote video cleanup failed",
			zap.String("public_id", video.PublicID),
			zap.Error(err))
	}
	return nil
}

var _ domain.Service = (*service)(nil)
