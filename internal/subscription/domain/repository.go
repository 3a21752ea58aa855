package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CreditColumn names a credit balance column on the subscription row.
type CreditColumn string

const (
	ColumnVideoCredits CreditColumn = "video_credits"
	ColumnImageCredits CreditColumn = "image_credits"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub Subscription) error
	FindByOrgID(ctx context.Context, orgID snowflake.ID) (*Subscription, error)
	// FindByOrgIDForUpdate locks the subscription row for the duration
	// of the surrounding transaction.
	FindByOrgIDForUpdate(ctx context.Context, orgID snowflake.ID) (*Subscription, error)
	FindByProviderSubscriptionID(ctx context.Context, providerSubID string) (*Subscription, error)
	FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (*Subscription, error)
	Update(ctx context.Context, sub Subscription) error
	// ConsumeCredit decrements a credit balance only when enough
	// remains, reporting whether the decrement happened.
	ConsumeCredit(ctx context.Context, orgID snowflake.ID, column CreditColumn, amount int) (bool, error)
}
