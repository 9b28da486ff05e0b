package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Payment settles exactly one order. The unique index on OrderID backs the
// at-most-once rule at the store level.
type Payment struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	OrderID        uint            `json:"order_id" gorm:"not null;uniqueIndex"`
	AmountPaid     decimal.Decimal `json:"amount_paid" gorm:"type:decimal(12,2);not null"`
	AmountTendered decimal.Decimal `json:"amount_tendered" gorm:"type:decimal(12,2);not null"`
	PaymentMethod  PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaidAt         time.Time       `json:"paid_at" gorm:"not null"`
	ProcessedBy    uint            `json:"processed_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p Payment) EntityID() uint { return p.ID }
