package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

// Catalog resolves menu items for pricing order lines.
type Catalog interface {
	MenuItem(ctx context.Context, id uint) (models.MenuItem, error)
}

// ItemRequest asks for quantity units of a menu item.
type ItemRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

// OrderLifecycle creates orders, edits their items and moves them through
// placed, preparing, served, then paid or cancelled.
type OrderLifecycle struct {
	orders  *store.OrderStore
	catalog Catalog
	now     func() time.Time
}

func NewOrderLifecycle(orders *store.OrderStore, catalog Catalog) *OrderLifecycle {
	return &OrderLifecycle{orders: orders, catalog: catalog, now: time.Now}
}

// forward lists the only transitions AdvanceStatus accepts.
var forward = map[models.OrderStatus]models.OrderStatus{
	models.OrderPlaced:    models.OrderPreparing,
	models.OrderPreparing: models.OrderServed,
}

func knownStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderPlaced, models.OrderPreparing, models.OrderServed, models.OrderPaid, models.OrderCancelled:
		return true
	}
	return false
}

// OrderTotal is Σ price × quantity over items.
func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CreateOrder places a dine-in order when tableID is set, takeaway otherwise.
// Seating the table is left to the caller.
func (l *OrderLifecycle) CreateOrder(ctx context.Context, tableID *uint, reqs []ItemRequest, actor models.Actor) (models.Order, error) {
	if len(reqs) == 0 {
		return models.Order{}, apperror.Validation("an order needs at least one item")
	}
	items, err := l.mergeLines(ctx, nil, reqs)
	if err != nil {
		return models.Order{}, err
	}

	orderType := models.OrderTakeaway
	if tableID != nil {
		orderType = models.OrderDineIn
	}
	return l.orders.Create(ctx, models.Order{
		TableID:     tableID,
		OrderType:   orderType,
		Status:      models.OrderPlaced,
		OrderTime:   l.now(),
		TotalAmount: OrderTotal(items),
		CreatedBy:   actor.UserID,
		Items:       items,
	})
}

// AddItems appends lines to an editable order. A request matching an
// existing line's menu item, notes and captured price bumps that line.
func (l *OrderLifecycle) AddItems(ctx context.Context, orderID uint, reqs []ItemRequest) (models.Order, error) {
	if len(reqs) == 0 {
		return models.Order{}, apperror.Validation("no items to add")
	}
	order, err := l.editable(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	items, err := l.mergeLines(ctx, order.Items, reqs)
	if err != nil {
		return models.Order{}, err
	}
	return l.orders.ReplaceItems(ctx, order.ID, items, OrderTotal(items))
}

// AdjustQuantity changes a line by delta; a line reaching zero is removed.
func (l *OrderLifecycle) AdjustQuantity(ctx context.Context, orderID, itemID uint, delta int) (models.Order, error) {
	if delta == 0 {
		return models.Order{}, apperror.Validation("quantity change must not be zero")
	}
	order, err := l.editable(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	items := make([]models.OrderItem, 0, len(order.Items))
	found := false
	for _, item := range order.Items {
		if item.ID == itemID {
			found = true
			qty, err := addQuantity(item.Quantity, delta)
			if err != nil {
				return models.Order{}, err
			}
			if qty <= 0 {
				continue
			}
			item.Quantity = qty
		}
		items = append(items, item)
	}
	if !found {
		return models.Order{}, apperror.NotFound("order item", itemID)
	}
	return l.orders.ReplaceItems(ctx, order.ID, items, OrderTotal(items))
}

// AdvanceStatus moves an order one step along placed, preparing, served.
// It returns the updated order and the status it left.
func (l *OrderLifecycle) AdvanceStatus(ctx context.Context, orderID uint, next models.OrderStatus) (models.Order, models.OrderStatus, error) {
	if !knownStatus(next) {
		return models.Order{}, "", apperror.Validation("unknown order status %q", next)
	}
	order, err := l.orders.Refresh(ctx, orderID)
	if err != nil {
		return models.Order{}, "", err
	}
	if want, ok := forward[order.Status]; !ok || want != next {
		return models.Order{}, "", apperror.State("order %d cannot move from %s to %s", order.ID, order.Status, next)
	}
	return l.transition(ctx, order, next)
}

// Cancel abandons an order that has not been served.
func (l *OrderLifecycle) Cancel(ctx context.Context, orderID uint) (models.Order, models.OrderStatus, error) {
	order, err := l.orders.Refresh(ctx, orderID)
	if err != nil {
		return models.Order{}, "", err
	}
	if order.Status != models.OrderPlaced && order.Status != models.OrderPreparing {
		return models.Order{}, "", apperror.State("order %d cannot be cancelled once %s", order.ID, order.Status)
	}
	return l.transition(ctx, order, models.OrderCancelled)
}

// MarkPaid closes an order. It is the settlement close step and the only way
// into the paid status.
func (l *OrderLifecycle) MarkPaid(ctx context.Context, orderID uint) (models.Order, models.OrderStatus, error) {
	order, err := l.orders.Refresh(ctx, orderID)
	if err != nil {
		return models.Order{}, "", err
	}
	if order.Status.IsTerminal() {
		return models.Order{}, "", apperror.Conflict(order, "order %d is already %s", order.ID, order.Status)
	}
	return l.transition(ctx, order, models.OrderPaid)
}

// Discard deletes an order that never took effect.
func (l *OrderLifecycle) Discard(ctx context.Context, orderID uint) error {
	err := l.orders.Delete(ctx, orderID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	return err
}

func (l *OrderLifecycle) transition(ctx context.Context, order models.Order, next models.OrderStatus) (models.Order, models.OrderStatus, error) {
	updated, err := l.orders.Update(ctx, order.ID, store.Patch{"status": next})
	if err != nil {
		return models.Order{}, "", err
	}
	return updated, order.Status, nil
}

func (l *OrderLifecycle) editable(ctx context.Context, orderID uint) (models.Order, error) {
	order, err := l.orders.Refresh(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !order.Status.IsEditable() {
		return models.Order{}, apperror.Conflict(order, "order %d is %s and can no longer be edited", order.ID, order.Status)
	}
	return order, nil
}

// mergeLines resolves reqs against the catalog and folds them into a copy of
// existing.
func (l *OrderLifecycle) mergeLines(ctx context.Context, existing []models.OrderItem, reqs []ItemRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, len(existing), len(existing)+len(reqs))
	copy(items, existing)

	for _, req := range reqs {
		if req.Quantity < 1 || req.Quantity > MaxLineQuantity {
			return nil, apperror.Validation("quantity for menu item %d must be between 1 and %d", req.MenuItemID, MaxLineQuantity)
		}
		menu, err := l.catalog.MenuItem(ctx, req.MenuItemID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Validation("menu item %d does not exist", req.MenuItemID)
		}
		if err != nil {
			return nil, err
		}
		if !menu.Available {
			return nil, apperror.Validation("menu item %s is not available", menu.Name)
		}

		bumped := false
		for i := range items {
			if items[i].MenuItemID == menu.ID && items[i].Notes == req.Notes && items[i].Price.Equal(menu.Price) {
				qty, err := addQuantity(items[i].Quantity, req.Quantity)
				if err != nil {
					return nil, err
				}
				items[i].Quantity = qty
				bumped = true
				break
			}
		}
		if !bumped {
			items = append(items, models.OrderItem{
				MenuItemID: menu.ID,
				Name:       menu.Name,
				Price:      menu.Price,
				Quantity:   req.Quantity,
				Notes:      req.Notes,
			})
		}
	}
	return items, nil
}

// MaxLineQuantity caps a single order line.
const MaxLineQuantity = 999

// addQuantity applies delta to a line quantity, refusing results above
// MaxLineQuantity. The check runs before the addition so it cannot wrap.
func addQuantity(current, delta int) (int, error) {
	if delta > 0 && current > MaxLineQuantity-delta {
		return 0, apperror.Validation("line quantity cannot exceed %d", MaxLineQuantity)
	}
	return current + delta, nil
}
