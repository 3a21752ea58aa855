package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/plan"
)

type Service interface {
	// ProvisionTx creates the starter subscription for a new
	// organization inside the caller's transaction.
	ProvisionTx(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, now time.Time) error

	// Get returns the caller organization's subscription with its plan
	// details and remaining balances.
	Get(ctx context.Context) (*SubscriptionResponse, error)

	// Cancel reverts the caller organization to the free tier
	// immediately, resetting balances to the free allowance.
	Cancel(ctx context.Context) (*SubscriptionResponse, error)
}

// PlanOption is a catalog entry annotated with whether it is the
// caller's active plan.
type PlanOption struct {
	plan.Plan
	Current bool `json:"current"`
}

type SubscriptionResponse struct {
	ID                 string    `json:"id"`
	Plan               string    `json:"plan"`
	PlanName           string    `json:"plan_name"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end"`
	VideoCredits       int       `json:"video_credits"`
	ImageCredits       int       `json:"image_credits"`
	VideoAllowance     int       `json:"video_allowance"`
	ImageAllowance     int       `json:"image_allowance"`
	StorageLimitGB     int       `json:"storage_limit_gb"`

	// Plans lists the catalog, only on direct fetches.
	Plans []PlanOption `json:"plans,omitempty"`
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrAlreadyFree          = errors.New("already_on_free_plan")
)
