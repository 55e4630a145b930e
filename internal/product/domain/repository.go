package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	BrandID snowflake.ID
	InStock bool
	Search  string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, error)
	UpdatePrice(ctx context.Context, db *gorm.DB, id snowflake.ID, price decimal.Decimal, now time.Time) (bool, error)
	SetStock(ctx context.Context, db *gorm.DB, id snowflake.ID, stock int, now time.Time) (bool, error)
	// DecrementStock returns false when fewer than qty units remain.
	DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int, now time.Time) (bool, error)
	IncrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int, now time.Time) error
	CountOrderLines(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
