package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Increment bumps the counter for (org, type, year, month),
	// creating the row when it does not exist yet.
	Increment(ctx context.Context, record UsageRecord) error
	ListByPeriod(ctx context.Context, orgID snowflake.ID, year, month int) ([]UsageRecord, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]UsageRecord, error)
}
