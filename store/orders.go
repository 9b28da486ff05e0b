package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

// OrderBackend adds the item mutation the order store needs on top of Backend.
type OrderBackend interface {
	Backend[models.Order]
	// ReplaceItems makes items the order's full item list and stores total, in one unit.
	ReplaceItems(ctx context.Context, id uint, items []models.OrderItem, total decimal.Decimal) (models.Order, error)
}

// OrderStore owns Order and OrderItem records.
type OrderStore struct {
	*Collection[models.Order]
	backend OrderBackend
}

func NewOrderStore(backend OrderBackend, retry RetryPolicy) *OrderStore {
	return &OrderStore{
		Collection: NewCollection[models.Order]("order", backend, retry),
		backend:    backend,
	}
}

// ReplaceItems is not retried: new lines are inserted, so a replay after a
// lost confirmation would duplicate them.
func (s *OrderStore) ReplaceItems(ctx context.Context, id uint, items []models.OrderItem, total decimal.Decimal) (models.Order, error) {
	order, err := s.backend.ReplaceItems(ctx, id, items, total)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.evict(id)
		}
		return models.Order{}, err
	}
	s.put(order)
	return order, nil
}

// ForTable lists every order ever placed on tableID.
func (s *OrderStore) ForTable(tableID uint) []models.Order {
	return s.Filter(func(o models.Order) bool {
		return o.TableID != nil && *o.TableID == tableID
	})
}

// ActiveForTable returns the unpaid, uncancelled order on tableID, if any.
func (s *OrderStore) ActiveForTable(tableID uint) (models.Order, bool) {
	for _, o := range s.ForTable(tableID) {
		if o.IsActive() {
			return o, true
		}
	}
	return models.Order{}, false
}

// GormOrderBackend stores orders and their items.
type GormOrderBackend struct {
	*GormBackend[models.Order]
}

func NewGormOrderBackend(db *gorm.DB, timeout time.Duration) *GormOrderBackend {
	return &GormOrderBackend{GormBackend: NewGormBackend[models.Order](db, "order", timeout, "Items")}
}

func (b *GormOrderBackend) ReplaceItems(ctx context.Context, id uint, items []models.OrderItem, total decimal.Decimal) (models.Order, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}

		keep := make([]uint, 0, len(items))
		for _, item := range items {
			if item.ID != 0 {
				keep = append(keep, item.ID)
			}
		}
		stale := tx.Where("order_id = ?", id)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = id
			if items[i].ID == 0 {
				if err := tx.Create(&items[i]).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Order{}).Where("id = ?", id).Update("total_amount", total).Error
	})
	if err != nil {
		return models.Order{}, b.translate("replace items", id, err)
	}
	return b.FetchOne(ctx, id)
}

// Delete removes the order together with its items.
func (b *GormOrderBackend) Delete(ctx context.Context, id uint) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	var affected int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return b.translate("delete", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("order", id)
	}
	return nil
}
