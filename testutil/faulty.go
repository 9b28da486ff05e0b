package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

// ErrInjected is the cause carried by injected failures.
var ErrInjected = errors.New("injected failure")

// Outage is an injected transport failure; stores treat it as retryable.
func Outage(op string) error {
	return apperror.Unavailable(op, ErrInjected)
}

// Faulty wraps a backend and consults its hooks before delegating. A hook
// returning an error short-circuits the call. Calls are counted per method.
type Faulty[T store.Entity] struct {
	Inner store.Backend[T]

	FetchAllFn func() error
	FetchOneFn func(id uint) error
	CreateFn   func(rec *T) error
	UpdateFn   func(id uint, patch store.Patch) error
	DeleteFn   func(id uint) error

	mu    sync.Mutex
	calls map[string]int
}

func NewFaulty[T store.Entity](inner store.Backend[T]) *Faulty[T] {
	return &Faulty[T]{Inner: inner, calls: make(map[string]int)}
}

// Calls reports how often method reached the wrapper.
func (f *Faulty[T]) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Faulty[T]) count(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *Faulty[T]) FetchAll(ctx context.Context) ([]T, error) {
	f.count("FetchAll")
	if f.FetchAllFn != nil {
		if err := f.FetchAllFn(); err != nil {
			return nil, err
		}
	}
	return f.Inner.FetchAll(ctx)
}

func (f *Faulty[T]) FetchOne(ctx context.Context, id uint) (T, error) {
	f.count("FetchOne")
	if f.FetchOneFn != nil {
		if err := f.FetchOneFn(id); err != nil {
			var zero T
			return zero, err
		}
	}
	return f.Inner.FetchOne(ctx, id)
}

func (f *Faulty[T]) Create(ctx context.Context, rec *T) error {
	f.count("Create")
	if f.CreateFn != nil {
		if err := f.CreateFn(rec); err != nil {
			return err
		}
	}
	return f.Inner.Create(ctx, rec)
}

func (f *Faulty[T]) Update(ctx context.Context, id uint, patch store.Patch) (T, error) {
	f.count("Update")
	if f.UpdateFn != nil {
		if err := f.UpdateFn(id, patch); err != nil {
			var zero T
			return zero, err
		}
	}
	return f.Inner.Update(ctx, id, patch)
}

func (f *Faulty[T]) Delete(ctx context.Context, id uint) error {
	f.count("Delete")
	if f.DeleteFn != nil {
		if err := f.DeleteFn(id); err != nil {
			return err
		}
	}
	return f.Inner.Delete(ctx, id)
}

// FaultyOrders adds ReplaceItems to Faulty for the order store.
type FaultyOrders struct {
	*Faulty[models.Order]
	inner store.OrderBackend

	ReplaceItemsFn func(id uint) error
}

func NewFaultyOrders(inner store.OrderBackend) *FaultyOrders {
	return &FaultyOrders{Faulty: NewFaulty[models.Order](inner), inner: inner}
}

func (f *FaultyOrders) ReplaceItems(ctx context.Context, id uint, items []models.OrderItem, total decimal.Decimal) (models.Order, error) {
	f.count("ReplaceItems")
	if f.ReplaceItemsFn != nil {
		if err := f.ReplaceItemsFn(id); err != nil {
			return models.Order{}, err
		}
	}
	return f.inner.ReplaceItems(ctx, id, items, total)
}

// FaultyPayments adds FindByOrder to Faulty for the payment store.
type FaultyPayments struct {
	*Faulty[models.Payment]
	inner store.PaymentBackend

	FindByOrderFn func(orderID uint) error
}

func NewFaultyPayments(inner store.PaymentBackend) *FaultyPayments {
	return &FaultyPayments{Faulty: NewFaulty[models.Payment](inner), inner: inner}
}

func (f *FaultyPayments) FindByOrder(ctx context.Context, orderID uint) (models.Payment, error) {
	f.count("FindByOrder")
	if f.FindByOrderFn != nil {
		if err := f.FindByOrderFn(orderID); err != nil {
			return models.Payment{}, err
		}
	}
	return f.inner.FindByOrder(ctx, orderID)
}

// FailTimes returns a hook that fails the first n calls with err.
func FailTimes(n int, err error) func() error {
	var mu sync.Mutex
	left := n
	return func() error {
		mu.Lock()
		defer mu.Unlock()
		if left <= 0 {
			return nil
		}
		left--
		return err
	}
}
