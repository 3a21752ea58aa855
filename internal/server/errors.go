package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/auth"
	"github.com/rushi-018/saas-imaging/internal/authorization"
	billingdomain "github.com/rushi-018/saas-imaging/internal/billing/domain"
	brandkitdomain "github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	"github.com/rushi-018/saas-imaging/internal/entitlement"
	organizationdomain "github.com/rushi-018/saas-imaging/internal/organization/domain"
	"github.com/rushi-018/saas-imaging/internal/plan"
	"github.com/rushi-018/saas-imaging/internal/providers/encode"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	transformdomain "github.com/rushi-018/saas-imaging/internal/transform/domain"
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
	videodomain "github.com/rushi-018/saas-imaging/internal/video/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request body")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	var limitErr *entitlement.LimitError
	if errors.As(err, &limitErr) {
		return http.StatusForbidden, errorPayload{
			Type:    "limit_reached",
			Message: limitErr.Error(),
			Details: map[string]any{
				"resource": string(limitErr.Kind),
				"limit":    limitErr.Limit,
				"current":  limitErr.Current,
			},
		}
	}

	var creditsErr *entitlement.CreditsExhaustedError
	if errors.As(err, &creditsErr) {
		return http.StatusForbidden, errorPayload{
			Type:    "credits_exhausted",
			Message: creditsErr.Error(),
			Details: map[string]any{
				"credit":    string(creditsErr.Kind),
				"resets_at": creditsErr.ResetsAt,
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrNotConfigured):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, organizationdomain.ErrForbidden),
		errors.Is(err, organizationdomain.ErrOwnerImmutable):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case errors.Is(err, organizationdomain.ErrMemberExists),
		errors.Is(err, organizationdomain.ErrOrganizationExists),
		errors.Is(err, subscriptiondomain.ErrAlreadyFree):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: "request", Code: err.Error(), Message: "invalid request"},
			},
		}

	case errors.Is(err, billingdomain.ErrCheckoutUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}

	case isExternalServiceError(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "external_service_failure",
			Message: "upstream service failure",
		}

	default:
		// Includes entitlement.ErrConfiguration; never exposed verbatim.
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) ||
		errors.Is(err, brandkitdomain.ErrBrandKitNotFound) ||
		errors.Is(err, videodomain.ErrVideoNotFound) ||
		errors.Is(err, transformdomain.ErrTransformNotFound) ||
		errors.Is(err, organizationdomain.ErrMemberNotFound) ||
		errors.Is(err, organizationdomain.ErrInvalidOrganization)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, plan.ErrUnknownPlan) ||
		errors.Is(err, organizationdomain.ErrInvalidName) ||
		errors.Is(err, organizationdomain.ErrInvalidEmail) ||
		errors.Is(err, organizationdomain.ErrInvalidRole) ||
		errors.Is(err, brandkitdomain.ErrInvalidName) ||
		errors.Is(err, brandkitdomain.ErrInvalidSource) ||
		errors.Is(err, videodomain.ErrInvalidTitle) ||
		errors.Is(err, videodomain.ErrInvalidSource) ||
		errors.Is(err, videodomain.ErrInvalidBrandKit) ||
		errors.Is(err, transformdomain.ErrInvalidType) ||
		errors.Is(err, transformdomain.ErrInvalidSettings) ||
		errors.Is(err, transformdomain.ErrInvalidPlatform) ||
		errors.Is(err, transformdomain.ErrInvalidBrandKit) ||
		errors.Is(err, usagedomain.ErrInvalidUsageType) ||
		errors.Is(err, billingdomain.ErrFreePlanCheckout)
}

func isExternalServiceError(err error) bool {
	if errors.Is(err, encode.ErrUnavailable) {
		return true
	}
	var remote *encode.RemoteError
	return errors.As(err, &remote)
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
