package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Cursor      *Cursor
	Limit       int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	UpdateContact(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Client, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Client, error)
}
