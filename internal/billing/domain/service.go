package domain

import (
	"context"
	"net/http"

	"github.com/rushi-018/saas-imaging/internal/plan"
)

type Service interface {
	// IngestWebhook verifies, records, and applies a provider webhook
	// delivery. Duplicate deliveries return ErrEventAlreadyProcessed
	// and unhandled event types return ErrEventIgnored; both are
	// acknowledged to the provider.
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error

	// CreateCheckout starts a hosted checkout for the caller
	// organization and returns the redirect URL.
	CreateCheckout(ctx context.Context, planID plan.ID) (string, error)
}
