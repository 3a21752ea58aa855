package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	brandkitdomain "github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/providers/encode"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	"github.com/rushi-018/saas-imaging/internal/transform/domain"
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
	videodomain "github.com/rushi-018/saas-imaging/internal/video/domain"
)

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	videoRepo videodomain.Repository
	kitRepo   brandkitdomain.Repository
	subRepo   subscriptiondomain.Repository
	evaluator *entitlement.Evaluator
	holder    *plan.CatalogHolder
	encoder   encode.Encoder
	usageSvc  usagedomain.Service
	genID     *snowflake.Node
	clk       clock.Clock
	metrics   *metrics.Metrics
}

func NewService(
	db *gorm.DB,
	repo domain.Repository,
	videoRepo videodomain.Repository,
	kitRepo brandkitdomain.Repository,
	subRepo subscriptiondomain.Repository,
	evaluator *entitlement.Evaluator,
	holder *plan.CatalogHolder,
	encoder encode.Encoder,
	usageSvc usagedomain.Service,
	genID *snowflake.Node,
	clk clock.Clock,
	m *metrics.Metrics,
) domain.Service {
	return &service{
		db:        db,
		repo:      repo,
		videoRepo: videoRepo,
		kitRepo:   kitRepo,
		subRepo:   subRepo,
		evaluator: evaluator,
		holder:    holder,
		encoder:   encoder,
		usageSvc:  usageSvc,
		genID:     genID,
		clk:       clk,
		metrics:   m,
	}
}

func (s *service) Create(ctx context.Context, videoID snowflake.ID, req domain.CreateTransformRequest) (*domain.VideoTransform, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	spec, kitID, err := s.buildSpec(ctx, orgID, req)
	if err != nil {
		return nil, err
	}

	settings, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, domain.ErrInvalidSettings
	}

	sub, err := s.subRepo.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscriptiondomain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	transform := domain.VideoTransform{
		ID:         s.genID.Generate(),
		VideoID:    videoID,
		OrgID:      orgID,
		BrandKitID: kitID,
		Type:       req.Type,
		Settings:   settings,
		CreatedAt:  s.clk.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the video row so concurrent creates serialize on the
		// per-video count check.
		video, err := s.videoRepo.WithTx(tx).FindByIDForUpdate(ctx, orgID, videoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return videodomain.ErrVideoNotFound
			}
			return err
		}

		count, err := s.repo.WithTx(tx).CountByVideo(ctx, videoID)
		if err != nil {
			return err
		}
		if err := s.evaluator.CheckLimit(plan.ID(sub.Plan), entitlement.ResourceTransform, count); err != nil {
			if entitlement.IsLimitError(err) {
				s.metrics.RecordGateDenial(ctx, string(entitlement.ResourceTransform), "limit")
			}
			return err
		}

		transform.URL = s.encoder.TransformURL(encode.MediaVideo, video.PublicID, spec)
		if err := s.repo.WithTx(tx).Create(ctx, transform); err != nil {
			return err
		}
		return s.usageSvc.RecordTx(ctx, tx, usagedomain.TypeTransform)
	})
	if err != nil {
		return nil, err
	}
	return &transform, nil
}

func (s *service) List(ctx context.Context, videoID snowflake.ID) ([]domain.VideoTransform, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	if _, err := s.videoRepo.FindByID(ctx, orgID, videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, videodomain.ErrVideoNotFound
		}
		return nil, err
	}
	return s.repo.ListByVideo(ctx, orgID, videoID)
}

func (s *service) Get(ctx context.Context, transformID snowflake.ID) (*domain.VideoTransform, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	transform, err := s.repo.FindByID(ctx, orgID, transformID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransformNotFound
		}
		return nil, err
	}
	return transform, nil
}

func (s *service) Delete(ctx context.Context, transformID snowflake.ID) error {
	transform, err := s.Get(ctx, transformID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, transform.OrgID, transform.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTransformNotFound
		}
		return err
	}
	return nil
}

// buildSpec validates the settings for the requested type and renders
// the encode transform spec. It returns the brand kit id when the
// transform references one.
func (s *service) buildSpec(ctx context.Context, orgID snowflake.ID, req domain.CreateTransformRequest) (encode.TransformSpec, *snowflake.ID, error) {
	catalog := s.holder.Get()
	settings := req.Settings

	switch req.Type {
	case domain.TypeResize:
		if settings.Width <= 0 && settings.Height <= 0 {
			return encode.TransformSpec{}, nil, domain.ErrInvalidSettings
		}
		return encode.TransformSpec{
			Width:  settings.Width,
			Height: settings.Height,
			Crop:   settings.Crop,
		}, nil, nil

	case domain.TypeSocial:
		ratio, ok := catalog.AspectRatio(strings.TrimSpace(settings.Platform))
		if !ok {
			return encode.TransformSpec{}, nil, domain.ErrInvalidPlatform
		}
		return encode.TransformSpec{AspectRatio: ratio}, nil, nil

	case domain.TypeTrim:
		if settings.StartOffset < 0 || settings.EndOffset < 0 {
			return encode.TransformSpec{}, nil, domain.ErrInvalidSettings
		}
		if settings.StartOffset == 0 && settings.EndOffset == 0 {
			return encode.TransformSpec{}, nil, domain.ErrInvalidSettings
		}
		if settings.EndOffset > 0 && settings.EndOffset <= settings.StartOffset {
			return encode.TransformSpec{}, nil, domain.ErrInvalidSettings
		}
		return encode.TransformSpec{
			StartOffset: settings.StartOffset,
			EndOffset:   settings.EndOffset,
		}, nil, nil

	case domain.TypeWatermark:
		defaults := catalog.Watermark
		position := strings.TrimSpace(settings.Position)
		if position == "" {
			position = defaults.Gravity
		}
		opacity := settings.Opacity
		if opacity <= 0 {
			opacity = defaults.Opacity
		}

		if text := strings.TrimSpace(settings.Text); text != "" {
			return encode.TransformSpec{
				Text: &encode.TextSpec{
					Text:    text,
					Gravity: position,
					Opacity: opacity,
					OffsetX: defaults.OffsetX,
					OffsetY: defaults.OffsetY,
				},
			}, nil, nil
		}
		if logoID := strings.TrimSpace(settings.LogoID); logoID != "" {
			return encode.TransformSpec{
				Overlay: &encode.OverlaySpec{
					LogoID:  logoID,
					Gravity: position,
					Width:   defaults.Width,
					Opacity: opacity,
					OffsetX: defaults.OffsetX,
					OffsetY: defaults.OffsetY,
				},
			}, nil, nil
		}
		return encode.TransformSpec{}, nil, domain.ErrInvalidSettings

	case domain.TypeBrandKit:
		raw := strings.TrimSpace(settings.BrandKitID)
		if raw == "" {
			return encode.TransformSpec{}, nil, domain.ErrInvalidBrandKit
		}
		kitID, err := snowflake.ParseString(raw)
		if err != nil {
			return encode.TransformSpec{}, nil, domain.ErrInvalidBrandKit
		}
		kit, err := s.kitRepo.FindByID(ctx, orgID, kitID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return encode.TransformSpec{}, nil, domain.ErrInvalidBrandKit
			}
			return encode.TransformSpec{}, nil, err
		}
		if kit.LogoPublicID == "" {
			return encode.TransformSpec{}, nil, domain.ErrInvalidBrandKit
		}

		defaults := catalog.Watermark
		return encode.TransformSpec{
			Overlay: &encode.OverlaySpec{
				LogoID:  kit.LogoPublicID,
				Gravity: defaults.Gravity,
				Width:   defaults.Width,
				Opacity: defaults.Opacity,
				OffsetX: defaults.OffsetX,
				OffsetY: defaults.OffsetY,
			},
		}, &kitID, nil
	}
	return encode.TransformSpec{}, nil, domain.ErrInvalidType
}

var _ domain.Service = (*service)(nil)
