package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
)

type Order struct {
	ID              snowflake.ID         `json:"id" gorm:"primaryKey"`
	ClientID        snowflake.ID         `json:"client_id" gorm:"not null;index"`
	Total           decimal.Decimal      `json:"total" gorm:"type:numeric(12,2);not null"`
	Status          Status               `json:"status" gorm:"type:text;not null"`
	PaymentMethod   PaymentMethod        `json:"payment_method" gorm:"type:text;not null"`
	PaymentProofURL *string              `json:"payment_proof_url,omitempty"`
	Version         int64                `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time            `json:"updated_at" gorm:"not null"`
	Client          *clientdomain.Client `json:"client,omitempty" gorm:"-"`
	Lines           []OrderLine          `json:"lines,omitempty" gorm:"-"`
}

func (Order) TableName() string { return "orders" }

type OrderLine struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderID      snowflake.ID    `json:"order_id" gorm:"not null;index"`
	ProductID    snowflake.ID    `json:"product_id" gorm:"not null;index"`
	ProductModel string          `json:"product_model,omitempty" gorm:"->"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
}

func (OrderLine) TableName() string { return "order_lines" }

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Status      Status
	ClientID    snowflake.ID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Cursor      *Cursor
	Limit       int
}

// StatsRange bounds a statistics query; nil ends are open.
type StatsRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type Totals struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

type DailyPoint struct {
	Date   string          `json:"date"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type TopProduct struct {
	ProductID snowflake.ID    `json:"product_id"`
	Model     string          `json:"model"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// OrderAmount is one non-cancelled order reduced to what the daily series needs.
type OrderAmount struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

type Stats struct {
	Range       StatsRange    `json:"range"`
	Totals      Totals        `json:"totals"`
	ByStatus    []StatusCount `json:"by_status"`
	Daily       []DailyPoint  `json:"daily"`
	TopProducts []TopProduct  `json:"top_products"`
}
