package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rushi-018/saas-imaging/internal/usage/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Increment(ctx context.Context, record domain.UsageRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "org_id"}, {Name: "type"}, {Name: "year"}, {Name: "month"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("usage_records.count + ?", record.Count),
			"updated_at": record.UpdatedAt,
		}),
	}).Create(&record).Error
}

func (r *repository) ListByPeriod(ctx context.Context, orgID snowflake.ID, year, month int) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND year = ? AND month = ?", orgID, year, month).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("year DESC, month DESC, type ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
