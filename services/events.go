package services

import "github.com/yeremiapane/restaurant-floor/models"

// Notifier receives floor changes after an intent has been applied. It must
// not block.
type Notifier interface {
	TableChanged(table models.Table)
	TableRemoved(table models.Table)
	OrderChanged(order models.Order)
	PaymentRecorded(payment models.Payment, order models.Order)
}

type nopNotifier struct{}

func (nopNotifier) TableChanged(models.Table) {}
func (nopNotifier) TableRemoved(models.Table) {}
func (nopNotifier) OrderChanged(models.Order) {}
func (nopNotifier) PaymentRecorded(models.Payment, models.Order) {}
