package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

// GormCatalog reads menu items maintained by the catalog screens.
type GormCatalog struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormCatalog(db *gorm.DB, timeout time.Duration) *GormCatalog {
	return &GormCatalog{db: db, timeout: timeout}
}

func (c *GormCatalog) MenuItem(ctx context.Context, id uint) (models.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var item models.MenuItem
	if err := c.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MenuItem{}, apperror.NotFound("menu item", id)
		}
		if isTransient(err) {
			return models.MenuItem{}, apperror.Unavailable("fetch menu item", err)
		}
		return models.MenuItem{}, fmt.Errorf("fetch menu item %d: %w", id, err)
	}
	return item, nil
}

// MenuItems lists the whole catalog ordered by name.
func (c *GormCatalog) MenuItems(ctx context.Context) ([]models.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var items []models.MenuItem
	if err := c.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		if isTransient(err) {
			return nil, apperror.Unavailable("list menu items", err)
		}
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}
