package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/video/domain"
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

func (r *repository) Create(ctx context.Context, video domain.Video) error {
	return r.db.WithContext(ctx).Create(&video).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, videoID snowflake.ID) (*domain.Video, error) {
	var video domain.Video
	err := r.db.WithContext(ctx).First(&video, "id = ? AND org_id = ?", videoID, orgID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, orgID, videoID snowflake.ID) (*domain.Video, error) {
	var video domain.Video
	query := `SELECT * FROM videos WHERE id = ? AND org_id = ?`
	if r.db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}
	err := r.db.WithContext(ctx).Raw(query, videoID, orgID).Scan(&video).Error
	if err != nil {
		return nil, err
	}
	if video.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &video, nil
}

func (r *repository) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.Video, error) {
	var videos []domain.Video
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *repository) Delete(ctx context.Context, orgID, videoID snowflake.ID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", videoID, orgID).
		Delete(&domain.Video{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
