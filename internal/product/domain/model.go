package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	BrandID     snowflake.ID    `json:"brand_id" gorm:"not null;index"`
	BrandName   string          `json:"brand_name,omitempty" gorm:"->"`
	Model       string          `json:"model" gorm:"type:text;not null"`
	Slug        string          `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	Description *string         `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// InStock reports whether at least qty units are available.
func (p Product) InStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}
