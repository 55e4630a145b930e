package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Brand struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"not null;uniqueIndex" json:"name"`
	Description *string      `json:"description,omitempty"`
	LogoURL     *string      `json:"logo_url,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Brand) TableName() string { return "brands" }
