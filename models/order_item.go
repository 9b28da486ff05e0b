package models

import (
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;index" json:"order_id"`
	MenuItemID uint   `gorm:"not null" json:"menu_item_id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	// Price is the unit price captured when the line was added.
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Notes    string          `gorm:"type:text" json:"notes"`
}

// LineTotal is price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
