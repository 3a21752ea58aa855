package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/brandkit/domain"
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

func (r *repository) Create(ctx context.Context, kit domain.BrandKit) error {
	return r.db.WithContext(ctx).Create(&kit).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, kitID snowflake.ID) (*domain.BrandKit, error) {
	var kit domain.BrandKit
	err := r.db.WithContext(ctx).First(&kit, "id = ? AND org_id = ?", kitID, orgID).Error
	if err != nil {
		return nil, err
	}
	return &kit, nil
}

func (r *repository) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.BrandKit, error) {
	var kits []domain.BrandKit
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&kits).Error
	if err != nil {
		return nil, err
	}
	return kits, nil
}

func (r *repository) CountByOrg(ctx context.Context, orgID snowflake.ID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.BrandKit{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return int(count), err
}

func (r *repository) Update(ctx context.Context, kit domain.BrandKit) error {
	result := r.db.WithContext(ctx).
		Model(&domain.BrandKit{}).
		Where("id = ? AND org_id = ?", kit.ID, kit.OrgID).
		Updates(map[string]interface{}{
			"name":            kit.Name,
			"logo_public_id":  kit.LogoPublicID,
			"logo_url":        kit.LogoURL,
			"primary_color":   kit.PrimaryColor,
			"secondary_color": kit.SecondaryColor,
			"font":            kit.Font,
			"updated_at":      kit.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, orgID, kitID snowflake.ID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", kitID, orgID).
		Delete(&domain.BrandKit{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
