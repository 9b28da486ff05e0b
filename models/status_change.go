package models

import (
	"time"
)

const (
	EntityTable = "table"
	EntityOrder = "order"
)

// StatusChange is the audit record written for every table or order status
// transition, stamped with the acting user.
type StatusChange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Entity     string    `gorm:"type:varchar(20);not null;index:idx_entity" json:"entity"`
	EntityID   uint      `gorm:"not null;index:idx_entity" json:"entity_id"`
	FromStatus string    `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorID    uint      `json:"actor_id"`
	ChangedAt  time.Time `gorm:"not null" json:"changed_at"`
}
