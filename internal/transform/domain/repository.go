package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transform VideoTransform) error
	FindByID(ctx context.Context, orgID, transformID snowflake.ID) (*VideoTransform, error)
	ListByVideo(ctx context.Context, orgID, videoID snowflake.ID) ([]VideoTransform, error)
	CountByVideo(ctx context.Context, videoID snowflake.ID) (int, error)
	Delete(ctx context.Context, orgID, transformID snowflake.ID) error
}
