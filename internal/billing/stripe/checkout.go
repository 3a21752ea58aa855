package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rushi-018/saas-imaging/internal/billing/domain"
	"github.com/rushi-018/saas-imaging/internal/plan"
)

type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CheckoutClient creates hosted checkout sessions against the Stripe
// HTTP API.
type CheckoutClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCheckoutClient(apiKey string) *CheckoutClient {
	return &CheckoutClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// WithBaseURL points the client at a different API host, used in tests.
func (c *CheckoutClient) WithBaseURL(baseURL string) *CheckoutClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// CheckoutParams describes the subscription purchase to start.
type CheckoutParams struct {
	OrgID      string
	Plan       plan.Plan
	CustomerID string
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSession starts a subscription checkout and returns the
// hosted page URL.
func (c *CheckoutClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrCheckoutUnavailable
	}

	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("client_reference_id", params.OrgID)
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", "usd")
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.Plan.PriceCents, 10))
	values.Set("line_items[0][price_data][recurring][interval]", "month")
	values.Set("line_items[0][price_data][product_data][name]", params.Plan.Name)
	values.Set("metadata[organizationId]", params.OrgID)
	values.Set("metadata[planId]", string(params.Plan.ID))
	values.Set("subscription_data[metadata][organizationId]", params.OrgID)
	values.Set("subscription_data[metadata][planId]", string(params.Plan.ID))
	if params.CustomerID != "" {
		values.Set("customer", params.CustomerID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(values.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return "", fmt.Errorf("stripe checkout failed with status %d", resp.StatusCode)
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "unknown error"
		}
		return "", fmt.Errorf("stripe checkout failed: %s", message)
	}

	var session checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}
	if strings.TrimSpace(session.URL) == "" {
		return "", errors.New("stripe checkout returned no redirect url")
	}
	return session.URL, nil
}
