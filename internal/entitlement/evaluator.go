package entitlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/rushi-018/saas-imaging/internal/plan"
)

// ResourceKind names a counted resource gated by a plan limit.
type ResourceKind string

const (
	ResourceBrandKit  ResourceKind = "brand_kit"
	ResourceTransform ResourceKind = "transform"
	ResourceMember    ResourceKind = "member"
)

// CreditKind names a metered credit pool.
type CreditKind string

const (
	CreditVideo CreditKind = "video"
	CreditImage CreditKind = "image"
)

// ErrConfiguration marks an entitlement decision that could not be made
// because the stored plan is absent from the catalog. Callers must fail
// closed on it.
var ErrConfiguration = errors.New("entitlement_configuration")

// LimitError reports a plan ceiling that the requested action would
// exceed.
type LimitError struct {
	Kind    ResourceKind
	Limit   int
	Current int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit reached (%d of %d used)", e.Kind, e.Current, e.Limit)
}

// CreditsExhaustedError reports an empty credit pool and when it refills.
type CreditsExhaustedError struct {
	Kind     CreditKind
	ResetsAt time.Time
}

func (e *CreditsExhaustedError) Error() string {
	return fmt.Sprintf("%s credits exhausted, resets at %s", e.Kind, e.ResetsAt.Format(time.RFC3339))
}

// Evaluator answers entitlement questions against the active plan
// catalog. It never mutates state; gatekeepers re-check inside their
// transactions before committing.
type Evaluator struct {
	holder *plan.CatalogHolder
}

func NewEvaluator(holder *plan.CatalogHolder) *Evaluator {
	return &Evaluator{holder: holder}
}

// Plan resolves the plan with the given ID from the active catalog.
func (e *Evaluator) Plan(id plan.ID) (plan.Plan, error) {
	p, err := e.holder.Get().Get(id)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("%w: plan %q: %v", ErrConfiguration, id, err)
	}
	return p, nil
}

// CheckLimit verifies that one more resource of the given kind fits
// under the plan's ceiling, given the current count.
func (e *Evaluator) CheckLimit(planID plan.ID, kind ResourceKind, current int) error {
	p, err := e.Plan(planID)
	if err != nil {
		return err
	}
	limit, err := limitFor(p, kind)
	if err != nil {
		return err
	}
	if current >= limit {
		return &LimitError{Kind: kind, Limit: limit, Current: current}
	}
	return nil
}

// Limit returns the plan's ceiling for the given resource kind.
func (e *Evaluator) Limit(planID plan.ID, kind ResourceKind) (int, error) {
	p, err := e.Plan(planID)
	if err != nil {
		return 0, err
	}
	return limitFor(p, kind)
}

// CheckCredits verifies that the remaining balance covers one unit of
// the given credit kind. ResetsAt is the end of the current billing
// period, reported back to the caller on exhaustion.
func (e *Evaluator) CheckCredits(kind CreditKind, remaining int, resetsAt time.Time) error {
	if remaining <= 0 {
		return &CreditsExhaustedError{Kind: kind, ResetsAt: resetsAt}
	}
	return nil
}

// UploadProfile resolves the encoding parameters the plan grants for
// uploads.
func (e *Evaluator) UploadProfile(planID plan.ID) (plan.UploadProfile, error) {
	p, err := e.Plan(planID)
	if err != nil {
		return plan.UploadProfile{}, err
	}
	return p.Upload, nil
}

func limitFor(p plan.Plan, kind ResourceKind) (int, error) {
	switch kind {
	case ResourceBrandKit:
		return p.Limits.BrandKits, nil
	case ResourceTransform:
		return p.Limits.TransformsPerVideo, nil
	case ResourceMember:
		return p.Limits.Users, nil
	default:
		return 0, fmt.Errorf("%w: resource kind %q", ErrConfiguration, kind)
	}
}

// IsLimitError reports whether err is a plan limit denial.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

// IsCreditsExhausted reports whether err is a credit exhaustion denial.
func IsCreditsExhausted(err error) bool {
	var ce *CreditsExhaustedError
	return errors.As(err, &ce)
}
