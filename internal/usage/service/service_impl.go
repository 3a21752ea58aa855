package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/observability/metrics"
	"github.com/rushi-018/saas-imaging/internal/orgcontext"
	"github.com/rushi-018/saas-imaging/internal/usage/domain"
)

type service struct {
	repo    domain.Repository
	genID   *snowflake.Node
	clk     clock.Clock
	metrics *metrics.Metrics
}

func NewService(repo domain.Repository, genID *snowflake.Node, clk clock.Clock, m *metrics.Metrics) domain.Service {
	return &service{repo: repo, genID: genID, clk: clk, metrics: m}
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, usageType domain.UsageType) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}
	switch usageType {
	case domain.TypeVideoUpload, domain.TypeImageUpload, domain.TypeTransform:
	default:
		return domain.ErrInvalidUsageType
	}

	now := s.clk.Now()
	record := domain.UsageRecord{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Type:      usageType,
		Year:      now.Year(),
		Month:     int(now.Month()),
		Count:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.WithTx(tx).Increment(ctx, record); err != nil {
		return err
	}

	s.metrics.RecordUsageRecorded(ctx, string(usageType))
	return nil
}

func (s *service) Summary(ctx context.Context) (*domain.SummaryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	now := s.clk.Now()
	records, err := s.repo.ListByPeriod(ctx, orgID, now.Year(), int(now.Month()))
	if err != nil {
		return nil, err
	}

	summary := domain.SummaryResponse{Year: now.Year(), Month: int(now.Month())}
	for _, record := range records {
		switch record.Type {
		case domain.TypeVideoUpload:
			summary.VideoUploads = record.Count
		case domain.TypeImageUpload:
			summary.ImageUploads = record.Count
		case domain.TypeTransform:
			summary.Transforms = record.Count
		}
	}
	return &summary, nil
}

func (s *service) History(ctx context.Context) ([]domain.UsageRecord, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.ListByOrg(ctx, orgID)
}

var _ domain.Service = (*service)(nil)
