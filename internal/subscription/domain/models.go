// Package domain contains persistence models for subscriptions and
// their credit balances.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Subscription is the single billing record per organization. Credit
// balances live on the row and are decremented atomically as metered
// resources are consumed.
type Subscription struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID  snowflake.ID `gorm:"not null;uniqueIndex:ux_subscriptions_org" json:"org_id"`
	Plan   string       `gorm:"type:text;not null" json:"plan"`
	Status string       `gorm:"type:text;not null" json:"status"`

	CurrentPeriodStart time.Time `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd  bool      `gorm:"not null;default:false" json:"cancel_at_period_end"`

	VideoCredits   int `gorm:"not null;default:0" json:"video_credits"`
	ImageCredits   int `gorm:"not null;default:0" json:"image_credits"`
	StorageLimitGB int `gorm:"column:storage_limit_gb;not null;default:1" json:"storage_limit_gb"`

	ProviderCustomerID     string `gorm:"type:text;index" json:"provider_customer_id"`
	ProviderSubscriptionID string `gorm:"type:text;index" json:"provider_subscription_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
