package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Brand, error)
	List(ctx context.Context, req ListRequest) ([]Brand, error)
	Get(ctx context.Context, id string) (Brand, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

type ListRequest struct {
	Name string
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNameTaken   = errors.New("brand_name_taken")
	ErrHasProducts = errors.New("brand_has_products")
	ErrNotFound    = errors.New("brand_not_found")
)
