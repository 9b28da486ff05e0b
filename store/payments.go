package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

type PaymentBackend interface {
	Backend[models.Payment]
	FindByOrder(ctx context.Context, orderID uint) (models.Payment, error)
}

// PaymentStore owns Payment records.
type PaymentStore struct {
	*Collection[models.Payment]
	backend PaymentBackend
}

func NewPaymentStore(backend PaymentBackend, retry RetryPolicy) *PaymentStore {
	return &PaymentStore{
		Collection: NewCollection[models.Payment]("payment", backend, retry),
		backend:    backend,
	}
}

// ForOrder looks the payment of orderID up in the index.
func (s *PaymentStore) ForOrder(orderID uint) (models.Payment, bool) {
	found := s.Filter(func(p models.Payment) bool { return p.OrderID == orderID })
	if len(found) == 0 {
		return models.Payment{}, false
	}
	return found[0], true
}

// LookupForOrder asks the backend whether orderID already has a payment,
// catching settlements recorded since the index was loaded.
func (s *PaymentStore) LookupForOrder(ctx context.Context, orderID uint) (models.Payment, bool, error) {
	var p models.Payment
	err := s.retry.Do(ctx, func() error {
		var err error
		p, err = s.backend.FindByOrder(ctx, orderID)
		return err
	})
	if errors.Is(err, apperror.ErrNotFound) {
		return models.Payment{}, false, nil
	}
	if err != nil {
		return models.Payment{}, false, err
	}
	s.put(p)
	return p, true, nil
}

type GormPaymentBackend struct {
	*GormBackend[models.Payment]
}

func NewGormPaymentBackend(db *gorm.DB, timeout time.Duration) *GormPaymentBackend {
	return &GormPaymentBackend{GormBackend: NewGormBackend[models.Payment](db, "payment", timeout)}
}

func (b *GormPaymentBackend) FindByOrder(ctx context.Context, orderID uint) (models.Payment, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var p models.Payment
	if err := db.Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return models.Payment{}, b.translate("find by order", orderID, err)
	}
	return p, nil
}
