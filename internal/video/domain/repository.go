package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, video Video) error
	FindByID(ctx context.Context, orgID, videoID snowflake.ID) (*Video, error)
	// FindByIDForUpdate locks the video row for the duration of the
	// surrounding transaction.
	FindByIDForUpdate(ctx context.Context, orgID, videoID snowflake.ID) (*Video, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]Video, error)
	Delete(ctx context.Context, orgID, videoID snowflake.ID) error
}
