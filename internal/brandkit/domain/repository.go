package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, kit BrandKit) error
	FindByID(ctx context.Context, orgID, kitID snowflake.ID) (*BrandKit, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]BrandKit, error)
	CountByOrg(ctx context.Context, orgID snowflake.ID) (int, error)
	Update(ctx context.Context, kit BrandKit) error
	Delete(ctx context.Context, orgID, kitID snowflake.ID) error
}
