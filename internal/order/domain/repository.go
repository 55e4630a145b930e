package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	InsertLines(ctx context.Context, db *gorm.DB, lines []OrderLine) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindLines(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderLine, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Order, error)

	// UpdateStatus and UpdateProof apply only when the stored version matches;
	// false means another writer got there first.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, status Status, now time.Time) (bool, error)
	UpdateProof(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, proofURL string, status Status, now time.Time) (bool, error)

	Totals(ctx context.Context, db *gorm.DB, r StatsRange) (Totals, error)
	CountByStatus(ctx context.Context, db *gorm.DB, r StatsRange) ([]StatusCount, error)
	Amounts(ctx context.Context, db *gorm.DB, r StatsRange) ([]OrderAmount, error)
	TopProducts(ctx context.Context, db *gorm.DB, r StatsRange, limit int) ([]TopProduct, error)
}
