package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/rushi-018/saas-imaging/internal/billing/domain"
)

const maxWebhookBody = 1 << 20

// StripeWebhook ingests provider deliveries. Duplicate and unhandled
// events are acknowledged with 200 so the provider stops retrying;
// transient failures return 500 so it retries later.
func (s *Server) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = s.billingSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header)
	switch {
	case err == nil,
		errors.Is(err, billingdomain.ErrEventIgnored),
		errors.Is(err, billingdomain.ErrEventAlreadyProcessed):
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, billingdomain.ErrInvalidSignature),
		errors.Is(err, billingdomain.ErrInvalidPayload),
		errors.Is(err, billingdomain.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
	}
}
