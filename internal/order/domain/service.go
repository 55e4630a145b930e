package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)
	Checkout(ctx context.Context, req CheckoutRequest) (*Order, error)
	AttachPaymentProof(ctx context.Context, id string, proofURL string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status string) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, req ListOrderRequest) (ListOrderResponse, error)
	Stats(ctx context.Context, req StatsRequest) (*Stats, error)
}

type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequest struct {
	ClientID      string             `json:"client_id"`
	Items         []OrderItemRequest `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
}

type CheckoutRequest struct {
	Client        clientdomain.CreateClientRequest `json:"client"`
	Items         []OrderItemRequest               `json:"items"`
	Total         decimal.Decimal                  `json:"total"`
	PaymentMethod string                           `json:"payment_method"`
}

type ListOrderRequest struct {
	pagination.Pagination
	Status      string
	ClientID    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

// StatsRequest takes RFC3339 timestamps or YYYY-MM-DD dates; a date-only end covers the whole day.
type StatsRequest struct {
	Start string
	End   string
}

// Validation
var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidClientID      = errors.New("invalid_client_id")
	ErrInvalidItems         = errors.New("invalid_items")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidUnitPrice     = errors.New("invalid_unit_price")
	ErrTotalMismatch        = errors.New("total_mismatch")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidProofURL      = errors.New("invalid_proof_url")
	ErrInvalidTimeRange     = errors.New("invalid_time_range")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)

// Not found
var (
	ErrNotFound        = errors.New("order_not_found")
	ErrClientNotFound  = errors.New("client_not_found")
	ErrProductNotFound = errors.New("product_not_found")
)

// Conflict
var (
	ErrInsufficientStock = errors.New("insufficient_stock")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrOrderClosed       = errors.New("order_closed")
	ErrProofNotRequired  = errors.New("proof_not_required")
	ErrConcurrentUpdate  = errors.New("concurrent_update")
)
