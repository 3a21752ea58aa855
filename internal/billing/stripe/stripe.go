// Package stripe adapts Stripe webhook deliveries and API calls to the
// billing domain.
package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/rushi-018/saas-imaging/internal/billing/domain"
)

const Provider = "stripe"

// Adapter verifies and parses Stripe webhook payloads.
type Adapter struct {
	webhookSecret string
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{webhookSecret: strings.TrimSpace(webhookSecret)}
}

// Verify checks the Stripe-Signature header against the payload.
func (a *Adapter) Verify(payload []byte, sigHeader string) error {
	if a.webhookSecret == "" {
		return domain.ErrInvalidSignature
	}
	sigHeader = strings.TrimSpace(sigHeader)
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}

// Parse maps a Stripe event payload onto the normalized billing event.
func (a *Adapter) Parse(payload []byte) (*domain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return a.parseCheckoutSession(event, payload)
	case "invoice.paid", "invoice.payment_succeeded":
		return a.parseInvoice(event, payload, domain.EventInvoicePaid)
	case "invoice.payment_failed":
		return a.parseInvoice(event, payload, domain.EventPaymentFailed)
	case "customer.subscription.updated":
		return a.parseSubscription(event, payload, domain.EventSubscriptionUpdated)
	case "customer.subscription.deleted":
		return a.parseSubscription(event, payload, domain.EventSubscriptionDeleted)
	default:
		return nil, domain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
	Created      int64             `json:"created"`
}

type stripeInvoice struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	PeriodStart  int64  `json:"period_start"`
	PeriodEnd    int64  `json:"period_end"`
	Created      int64  `json:"created"`
	Lines        struct {
		Data []struct {
			Period struct {
				Start int64 `json:"start"`
				End   int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

type stripeSubscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Created            int64  `json:"created"`
}

func (a *Adapter) parseCheckoutSession(event stripeEvent, payload []byte) (*domain.Event, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.Subscription) == "" {
		return nil, domain.ErrInvalidEvent
	}

	orgID, err := metadataOrgID(session.Metadata)
	if err != nil {
		return nil, err
	}
	planID := strings.TrimSpace(session.Metadata["planId"])
	if planID == "" {
		return nil, domain.ErrInvalidEvent
	}

	return &domain.Event{
		Provider:               Provider,
		ProviderEventID:        event.ID,
		Type:                   domain.EventCheckoutCompleted,
		OccurredAt:             timestamp(session.Created, event.Created),
		OrgID:                  orgID,
		PlanID:                 planID,
		ProviderCustomerID:     strings.TrimSpace(session.Customer),
		ProviderSubscriptionID: strings.TrimSpace(session.Subscription),
		RawPayload:             payload,
	}, nil
}

func (a *Adapter) parseInvoice(event stripeEvent, payload []byte, eventType domain.EventType) (*domain.Event, error) {
	var invoice stripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(invoice.Subscription) == "" {
		return nil, domain.ErrInvalidEvent
	}

	// The line item period is the service window being billed; the
	// invoice-level period trails it on renewals.
	periodStart := invoice.PeriodStart
	periodEnd := invoice.PeriodEnd
	if len(invoice.Lines.Data) > 0 {
		if p := invoice.Lines.Data[0].Period; p.Start != 0 && p.End != 0 {
			periodStart = p.Start
			periodEnd = p.End
		}
	}

	normalized := &domain.Event{
		Provider:               Provider,
		ProviderEventID:        event.ID,
		Type:                   eventType,
		OccurredAt:             timestamp(invoice.Created, event.Created),
		ProviderCustomerID:     strings.TrimSpace(invoice.Customer),
		ProviderSubscriptionID: strings.TrimSpace(invoice.Subscription),
		RawPayload:             payload,
	}
	if periodStart != 0 {
		normalized.PeriodStart = time.Unix(periodStart, 0).UTC()
	}
	if periodEnd != 0 {
		normalized.PeriodEnd = time.Unix(periodEnd, 0).UTC()
	}
	return normalized, nil
}

func (a *Adapter) parseSubscription(event stripeEvent, payload []byte, eventType domain.EventType) (*domain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	normalized := &domain.Event{
		Provider:               Provider,
		ProviderEventID:        event.ID,
		Type:                   eventType,
		OccurredAt:             timestamp(sub.Created, event.Created),
		ProviderCustomerID:     strings.TrimSpace(sub.Customer),
		ProviderSubscriptionID: strings.TrimSpace(sub.ID),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		RawPayload:             payload,
	}
	if sub.CurrentPeriodStart != 0 {
		normalized.PeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	}
	if sub.CurrentPeriodEnd != 0 {
		normalized.PeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return normalized, nil
}

func metadataOrgID(metadata map[string]string) (snowflake.ID, error) {
	raw := strings.TrimSpace(metadata["organizationId"])
	if raw == "" {
		return 0, domain.ErrInvalidEvent
	}
	orgID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidEvent
	}
	return orgID, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(primary, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
