package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is the read-only view of the catalog the floor needs when pricing
// order lines. The catalog itself is maintained elsewhere.
type MenuItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Available bool            `gorm:"not null" json:"available"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (MenuItem) TableName() string { return "menu_items" }
