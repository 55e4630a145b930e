package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	branddomain "github.com/smallbiznis/storefront/internal/brand/domain"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/internal/upload"
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
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

var validationErrors = []error{
	ErrInvalidRequest,
	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidClientID,
	orderdomain.ErrInvalidItems,
	orderdomain.ErrInvalidQuantity,
	orderdomain.ErrInvalidUnitPrice,
	orderdomain.ErrTotalMismatch,
	orderdomain.ErrInvalidPaymentMethod,
	orderdomain.ErrInvalidStatus,
	orderdomain.ErrInvalidProofURL,
	orderdomain.ErrInvalidTimeRange,
	orderdomain.ErrInvalidPageToken,
	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidEmail,
	clientdomain.ErrInvalidID,
	clientdomain.ErrInvalidPageToken,
	productdomain.ErrInvalidID,
	productdomain.ErrInvalidBrandID,
	productdomain.ErrInvalidModel,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidStock,
	branddomain.ErrInvalidName,
	branddomain.ErrInvalidID,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidTarget,
	auditdomain.ErrInvalidAction,
	upload.ErrEmptyFile,
	upload.ErrFileTooLarge,
	upload.ErrInvalidFileType,
}

var notFoundErrors = []error{
	ErrNotFound,
	orderdomain.ErrNotFound,
	orderdomain.ErrClientNotFound,
	orderdomain.ErrProductNotFound,
	clientdomain.ErrNotFound,
	productdomain.ErrNotFound,
	productdomain.ErrBrandNotFound,
	branddomain.ErrNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	orderdomain.ErrInsufficientStock,
	orderdomain.ErrInvalidTransition,
	orderdomain.ErrOrderClosed,
	orderdomain.ErrProofNotRequired,
	orderdomain.ErrConcurrentUpdate,
	clientdomain.ErrEmailTaken,
	productdomain.ErrSlugTaken,
	productdomain.ErrInUse,
	branddomain.ErrNameTaken,
	branddomain.ErrHasProducts,
	ratelimit.ErrCheckoutInProgress,
}

var validationFields = map[string]string{
	"total_mismatch":    "total",
	"empty_file":        proofFormField,
	"file_too_large":    proofFormField,
	"invalid_file_type": proofFormField,
}

var validationMessages = map[string]string{
	"invalid_request":        "invalid request",
	"invalid_items":          "items must be a non-empty list of distinct products",
	"invalid_quantity":       "quantity must be greater than zero",
	"invalid_unit_price":     "unit price must not be negative",
	"total_mismatch":         "total does not match the sum of the lines",
	"invalid_payment_method": "payment method must be one of qr, transferencia, tarjeta",
	"invalid_status":         "unknown order status",
	"invalid_time_range":     "start must not be after end",
	"empty_file":             "file is empty",
	"file_too_large":         "file exceeds the maximum size",
	"invalid_file_type":      "file type is not allowed",
}

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
	return newValidationError("request", "invalid_request", "invalid request")
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

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: errorMessage(err, ErrNotFound, "not found"),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: errorMessage(err, ErrConflict, "conflict"),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if vErr := asValidationErrors(err); vErr != nil {
		if len(vErr.Errors) > 0 {
			return "validation_error", vErr.Errors[0].Code
		}
		return "validation_error", "invalid_request"
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, payload.Type
	}
	return payload.Type, knownCode(err)
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	return matchesAny(err, validationErrors)
}

func isNotFoundError(err error) bool {
	return matchesAny(err, notFoundErrors)
}

func isConflictError(err error) bool {
	return matchesAny(err, conflictErrors)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// knownCode returns the sentinel text wrapped by err, never the wrapping text.
func knownCode(err error) string {
	for _, group := range [][]error{validationErrors, notFoundErrors, conflictErrors} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	return ""
}

func errorMessage(err, generic error, fallback string) string {
	code := knownCode(err)
	if code == "" || code == generic.Error() {
		return fallback
	}
	return code
}

func validationErrorCode(err error) string {
	if code := knownCode(err); code != "" {
		return code
	}
	return "invalid_request"
}

func validationErrorField(code string) string {
	if field, ok := validationFields[code]; ok {
		return field
	}
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	if msg, ok := validationMessages[code]; ok {
		return msg
	}
	return "invalid value"
}
