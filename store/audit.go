package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/models"
)

// GormAuditLog appends StatusChange rows.
type GormAuditLog struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormAuditLog(db *gorm.DB, timeout time.Duration) *GormAuditLog {
	return &GormAuditLog{db: db, timeout: timeout}
}

func (l *GormAuditLog) Record(ctx context.Context, change models.StatusChange) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if change.ChangedAt.IsZero() {
		change.ChangedAt = time.Now()
	}
	if err := l.db.WithContext(ctx).Create(&change).Error; err != nil {
		return fmt.Errorf("record %s %d status change: %w", change.Entity, change.EntityID, err)
	}
	return nil
}

// History returns the status changes of one entity, oldest first.
func (l *GormAuditLog) History(ctx context.Context, entity string, id uint) ([]models.StatusChange, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var out []models.StatusChange
	err := l.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, id).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list %s %d history: %w", entity, id, err)
	}
	return out, nil
}
