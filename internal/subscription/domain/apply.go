package domain

import (
	"time"

	"github.com/rushi-018/saas-imaging/internal/plan"
)

// ApplyPlan moves the subscription onto p for the given period and
// restores the full credit allowance. Used when a plan is purchased or
// changed.
func ApplyPlan(sub *Subscription, p plan.Plan, start, end time.Time) {
	sub.Plan = string(p.ID)
	sub.Status = StatusActive
	sub.CurrentPeriodStart = start.UTC()
	sub.CurrentPeriodEnd = end.UTC()
	sub.CancelAtPeriodEnd = false
	ResetCredits(sub, p)
}

// ResetCredits restores balances and storage to the plan allowance
// without touching plan identity or period.
func ResetCredits(sub *Subscription, p plan.Plan) {
	sub.VideoCredits = p.Credits.Video
	sub.ImageCredits = p.Credits.Image
	sub.StorageLimitGB = p.StorageGB
}

// RollPeriod advances the billing period and restores the allowance.
// Used on renewal invoices.
func RollPeriod(sub *Subscription, p plan.Plan, start, end time.Time) {
	sub.Status = StatusActive
	sub.CurrentPeriodStart = start.UTC()
	sub.CurrentPeriodEnd = end.UTC()
	ResetCredits(sub, p)
}
