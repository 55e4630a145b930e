package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	List(ctx context.Context, req ListRequest) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*Product, error)
	UpdateStock(ctx context.Context, id string, stock int) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	BrandID string
	InStock bool
	Search  string
}

type CreateRequest struct {
	BrandID     string          `json:"brand_id"`
	Model       string          `json:"model"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description *string         `json:"description"`
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidBrandID = errors.New("invalid_brand_id")
	ErrInvalidModel   = errors.New("invalid_model")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrInvalidStock   = errors.New("invalid_stock")
	ErrBrandNotFound  = errors.New("brand_not_found")
	ErrNotFound       = errors.New("product_not_found")
	ErrSlugTaken      = errors.New("product_slug_taken")
	ErrInUse          = errors.New("product_in_use")
)
