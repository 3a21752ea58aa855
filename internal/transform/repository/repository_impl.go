package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/transform/domain"
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

func (r *repository) Create(ctx context.Context, transform domain.VideoTransform) error {
	return r.db.WithContext(ctx).Create(&transform).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, transformID snowflake.ID) (*domain.VideoTransform, error) {
	var transform domain.VideoTransform
	err := r.db.WithContext(ctx).First(&transform, "id = ? AND org_id = ?", transformID, orgID).Error
	if err != nil {
		return nil, err
	}
	return &transform, nil
}

func (r *repository) ListByVideo(ctx context.Context, orgID, videoID snowflake.ID) ([]domain.VideoTransform, error) {
	var transforms []domain.VideoTransform
	err := r.db.WithContext(ctx).
		Where("video_id = ? AND org_id = ?", videoID, orgID).
		Order("created_at DESC").
		Find(&transforms).Error
	if err != nil {
		return nil, err
	}
	return transforms, nil
}

func (r *repository) CountByVideo(ctx context.Context, videoID snowflake.ID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.VideoTransform{}).
		Where("video_id = ?", videoID).
		Count(&count).Error
	return int(count), err
}

func (r *repository) Delete(ctx context.Context, orgID, transformID snowflake.ID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", transformID, orgID).
		Delete(&domain.VideoTransform{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
