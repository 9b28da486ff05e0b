package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// PaymentRequest is one full settlement of an order.
type PaymentRequest struct {
	Method         models.PaymentMethod `json:"payment_method" binding:"required"`
	AmountTendered decimal.Decimal      `json:"amount_tendered"`
}

// PaymentEngine records settlements. Each order is settled at most once.
type PaymentEngine struct {
	payments *store.PaymentStore
	now      func() time.Time
}

func NewPaymentEngine(payments *store.PaymentStore) *PaymentEngine {
	return &PaymentEngine{payments: payments, now: time.Now}
}

// Settle records a payment for order and then runs close to finish the
// order. If close fails the payment is withdrawn.
func (e *PaymentEngine) Settle(ctx context.Context, order models.Order, req PaymentRequest, actor models.Actor, close func(context.Context) error) (models.Payment, error) {
	if existing, ok := e.payments.ForOrder(order.ID); ok {
		return models.Payment{}, apperror.Conflict(existing, "order %d is already settled", order.ID)
	}
	existing, ok, err := e.payments.LookupForOrder(ctx, order.ID)
	if err != nil {
		return models.Payment{}, err
	}
	if ok {
		return models.Payment{}, apperror.Conflict(existing, "order %d is already settled", order.ID)
	}

	if order.Status.IsTerminal() {
		return models.Payment{}, apperror.Conflict(order, "order %d is %s", order.ID, order.Status)
	}
	if len(order.Items) == 0 {
		return models.Payment{}, apperror.Validation("order %d has no items to pay for", order.ID)
	}

	due := order.TotalAmount
	if !due.IsPositive() {
		return models.Payment{}, apperror.Validation("order %d has no positive amount due (%s)", order.ID, due)
	}
	switch req.Method {
	case models.PaymentCash:
		if req.AmountTendered.LessThan(due) {
			return models.Payment{}, apperror.Validation("cash tendered %s is below the amount due %s", req.AmountTendered, due)
		}
	case models.PaymentCard:
		if !req.AmountTendered.Equal(due) {
			return models.Payment{}, apperror.Validation("card amount %s must equal the amount due %s", req.AmountTendered, due)
		}
	default:
		return models.Payment{}, apperror.Validation("unknown payment method %q", req.Method)
	}

	payment, err := e.payments.Create(ctx, models.Payment{
		OrderID:        order.ID,
		AmountPaid:     due,
		AmountTendered: req.AmountTendered,
		PaymentMethod:  req.Method,
		PaidAt:         e.now(),
		ProcessedBy:    actor.UserID,
	})
	if errors.Is(err, apperror.ErrConflict) {
		current, found, lookupErr := e.payments.LookupForOrder(ctx, order.ID)
		if lookupErr != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_id": order.ID,
			}).Errorf("lookup of conflicting payment failed: %v", lookupErr)
			return models.Payment{}, fmt.Errorf("order %d is already settled: %w", order.ID, lookupErr)
		}
		if !found {
			return models.Payment{}, apperror.Conflict(order, "order %d is already settled", order.ID)
		}
		return models.Payment{}, apperror.Conflict(current, "order %d is already settled", order.ID)
	}
	if err != nil {
		return models.Payment{}, err
	}

	if err := close(ctx); err != nil {
		if delErr := e.payments.Delete(ctx, payment.ID); delErr != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_id":   order.ID,
				"payment_id": payment.ID,
			}).Errorf("payment left behind after failed close: %v", delErr)
			return models.Payment{}, apperror.Reconciliation("settle order", err, delErr)
		}
		return models.Payment{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"method":   req.Method,
		"amount":   due.StringFixed(2),
	}).Info("order settled")
	return payment, nil
}
