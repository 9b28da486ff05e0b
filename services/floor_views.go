package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

// OrderFilter narrows Orders. Zero fields match everything.
type OrderFilter struct {
	Status  models.OrderStatus
	TableID *uint
}

func (f *Floor) Tables() []models.Table {
	return f.tables.All()
}

func (f *Floor) Table(id uint) (models.Table, error) {
	return f.tables.Get(id)
}

func (f *Floor) Orders(filter OrderFilter) []models.Order {
	return f.orders.Filter(func(o models.Order) bool {
		if filter.Status != "" && o.Status != filter.Status {
			return false
		}
		if filter.TableID != nil && (o.TableID == nil || *o.TableID != *filter.TableID) {
			return false
		}
		return true
	})
}

func (f *Floor) Order(id uint) (models.Order, error) {
	return f.orders.Get(id)
}

// OrdersForTable lists every order placed on the table, oldest first.
func (f *Floor) OrdersForTable(tableID uint) ([]models.Order, error) {
	if _, err := f.tables.Get(tableID); err != nil {
		return nil, err
	}
	return f.orders.ForTable(tableID), nil
}

// ActiveOrder returns the order currently holding the table.
func (f *Floor) ActiveOrder(tableID uint) (models.Order, error) {
	t, err := f.tables.Get(tableID)
	if err != nil {
		return models.Order{}, err
	}
	if t.CurrentOrderID == nil {
		return models.Order{}, apperror.NotFound("active order for table", tableID)
	}
	return f.orders.Get(*t.CurrentOrderID)
}

func (f *Floor) Payments() []models.Payment {
	return f.payments.All()
}

func (f *Floor) PaymentForOrder(orderID uint) (models.Payment, error) {
	if _, err := f.orders.Get(orderID); err != nil {
		return models.Payment{}, err
	}
	p, ok := f.payments.ForOrder(orderID)
	if !ok {
		return models.Payment{}, apperror.NotFound("payment for order", orderID)
	}
	return p, nil
}

// History returns the status changes of a table or order.
func (f *Floor) History(ctx context.Context, entity string, id uint) ([]models.StatusChange, error) {
	if f.audit == nil {
		return nil, nil
	}
	return f.audit.History(ctx, entity, id)
}

// FloorSummary is the dashboard view of the floor.
type FloorSummary struct {
	Tables        map[models.TableStatus]int `json:"tables"`
	LinkedTables  int                        `json:"linked_tables"`
	TotalSeats    int                        `json:"total_seats"`
	FreeSeats     int                        `json:"free_seats"`
	Orders        map[models.OrderStatus]int `json:"orders"`
	ActiveOrders  int                        `json:"active_orders"`
	PaymentsToday int                        `json:"payments_today"`
	RevenueToday  decimal.Decimal            `json:"revenue_today"`
}

// Summary counts tables, seats, orders and today's takings as of now.
// Seats of linked tables are counted through their primary.
func (f *Floor) Summary(now time.Time) FloorSummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := FloorSummary{
		Tables:       make(map[models.TableStatus]int),
		Orders:       make(map[models.OrderStatus]int),
		RevenueToday: decimal.Zero,
	}
	for _, t := range f.tables.All() {
		s.Tables[t.Status]++
		if t.IsLinked() {
			s.LinkedTables++
			continue
		}
		s.TotalSeats += t.Capacity
		if t.Status == models.TableAvailable {
			s.FreeSeats += t.Capacity
		}
	}
	for _, o := range f.orders.All() {
		s.Orders[o.Status]++
		if o.IsActive() {
			s.ActiveOrders++
		}
	}

	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	for _, p := range f.payments.All() {
		if !p.PaidAt.Before(start) && p.PaidAt.Before(end) {
			s.PaymentsToday++
			s.RevenueToday = s.RevenueToday.Add(p.AmountPaid)
		}
	}
	return s
}

// Violation is one broken cross-entity rule found by CheckInvariants.
type Violation struct {
	Entity  string `json:"entity"`
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

// CheckInvariants cross-checks tables, orders and payments in memory and
// reports every inconsistency found.
func (f *Floor) CheckInvariants() []Violation {
	f.mu.Lock()
	defer f.mu.Unlock()

	tables := f.tables.All()
	orders := f.orders.All()
	payments := f.payments.All()

	tableByID := make(map[uint]models.Table, len(tables))
	for _, t := range tables {
		tableByID[t.ID] = t
	}
	orderByID := make(map[uint]models.Order, len(orders))
	for _, o := range orders {
		orderByID[o.ID] = o
	}

	var out []Violation
	flag := func(entity string, id uint, format string, args ...interface{}) {
		out = append(out, Violation{Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)})
	}

	groupOf := make(map[uint]uint)
	for _, t := range tables {
		var active bool
		if t.CurrentOrderID != nil {
			o, ok := orderByID[*t.CurrentOrderID]
			active = ok && o.IsActive()
			if !ok {
				flag(models.EntityTable, t.ID, "current order %d does not exist", *t.CurrentOrderID)
			} else if o.TableID == nil || *o.TableID != t.ID {
				flag(models.EntityTable, t.ID, "current order %d belongs to another table", o.ID)
			}
		}
		if (t.Status == models.TableOccupied) != active {
			flag(models.EntityTable, t.ID, "status %s does not match its current order", t.Status)
		}

		for _, m := range t.MergedWith {
			member, ok := tableByID[m]
			switch {
			case !ok:
				flag(models.EntityTable, t.ID, "merged table %d does not exist", m)
			case member.LinkedTo == nil || *member.LinkedTo != t.ID:
				flag(models.EntityTable, m, "listed in the group of table %d but not linked to it", t.ID)
			case member.IsMerged():
				flag(models.EntityTable, m, "is both a group member and a primary")
			}
			if prev, dup := groupOf[m]; dup {
				flag(models.EntityTable, m, "belongs to the groups of tables %d and %d", prev, t.ID)
			}
			groupOf[m] = t.ID
		}
		if t.LinkedTo != nil {
			primary, ok := tableByID[*t.LinkedTo]
			if !ok || !primary.MergedWith.Contains(t.ID) {
				flag(models.EntityTable, t.ID, "linked to table %d which does not list it", *t.LinkedTo)
			}
		}
	}

	for _, o := range orders {
		if !o.TotalAmount.Equal(OrderTotal(o.Items)) {
			flag(models.EntityOrder, o.ID, "total %s does not match its items", o.TotalAmount)
		}
		if o.IsActive() && o.TableID != nil {
			t, ok := tableByID[*o.TableID]
			if !ok || t.CurrentOrderID == nil || *t.CurrentOrderID != o.ID {
				flag(models.EntityOrder, o.ID, "active but table %d does not hold it", *o.TableID)
			}
		}
	}

	paidFor := make(map[uint]int)
	for _, p := range payments {
		paidFor[p.OrderID]++
		o, ok := orderByID[p.OrderID]
		if !ok || o.Status != models.OrderPaid {
			flag("payment", p.ID, "settles order %d which is not paid", p.OrderID)
		}
	}
	for orderID, n := range paidFor {
		if n > 1 {
			flag(models.EntityOrder, orderID, "has %d payments", n)
		}
	}
	for _, o := range orders {
		if o.Status == models.OrderPaid && paidFor[o.ID] == 0 {
			flag(models.EntityOrder, o.ID, "paid without a payment")
		}
	}
	return out
}
