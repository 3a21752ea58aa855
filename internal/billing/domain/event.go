package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// EventType is the provider-neutral classification of a billing event.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.completed"
	EventInvoicePaid         EventType = "invoice.paid"
	EventPaymentFailed       EventType = "payment.failed"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
)

// Event is a provider webhook normalized into the fields the billing
// state machine needs. Fields not carried by a given event type stay
// zero.
type Event struct {
	Provider        string
	ProviderEventID string
	Type            EventType
	OccurredAt      time.Time

	// OrgID is resolved from checkout metadata when present.
	OrgID snowflake.ID
	// PlanID is the purchased plan from checkout metadata.
	PlanID string

	ProviderCustomerID     string
	ProviderSubscriptionID string

	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool

	RawPayload []byte
}

var (
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrUnknownSubscription   = errors.New("unknown_subscription")
	ErrCheckoutUnavailable   = errors.New("checkout_unavailable")
	ErrFreePlanCheckout      = errors.New("free_plan_has_no_checkout")
)
