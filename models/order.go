package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderDineIn   OrderType = "dine-in"
	OrderTakeaway OrderType = "takeaway"
)

type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

// IsEditable reports whether items may still be added or adjusted.
func (s OrderStatus) IsEditable() bool {
	return s == OrderPlaced || s == OrderPreparing
}

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TableID     *uint           `gorm:"index" json:"table_id,omitempty"`
	OrderType   OrderType       `gorm:"type:varchar(20);not null" json:"order_type"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'placed'" json:"status"`
	OrderTime   time.Time       `gorm:"not null" json:"order_time"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	CreatedBy   uint            `json:"created_by"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (o Order) EntityID() uint { return o.ID }

// IsActive reports whether the order still holds its table.
func (o Order) IsActive() bool { return !o.Status.IsTerminal() }
