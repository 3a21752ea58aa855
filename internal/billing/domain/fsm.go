package domain

import (
	"fmt"

	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
)

// NextStatus computes the subscription status after applying a billing
// event. It is a pure function so every transition can be enumerated in
// tests.
func NextStatus(current string, event EventType) (string, error) {
	switch event {
	case EventCheckoutCompleted, EventInvoicePaid:
		// A successful payment always recovers the subscription.
		return subscriptiondomain.StatusActive, nil
	case EventPaymentFailed:
		switch current {
		case subscriptiondomain.StatusActive, subscriptiondomain.StatusPastDue:
			return subscriptiondomain.StatusPastDue, nil
		case subscriptiondomain.StatusCanceled:
			// A failed payment on a canceled subscription changes nothing.
			return subscriptiondomain.StatusCanceled, nil
		}
	case EventSubscriptionDeleted:
		return subscriptiondomain.StatusCanceled, nil
	case EventSubscriptionUpdated:
		switch current {
		case subscriptiondomain.StatusActive, subscriptiondomain.StatusPastDue, subscriptiondomain.StatusCanceled:
			return current, nil
		}
	}
	return "", fmt.Errorf("%w: no transition from %q on %q", ErrInvalidEvent, current, event)
}
