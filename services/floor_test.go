package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

func TestSummaryCountsFloor(t *testing.T) {
	fx := newFixture(t)
	tables := fx.addTables(t, 4, 2, 6)

	_, err := fx.floor.MergeTables(fx.ctx, staff, []uint{tables[0].ID, tables[1].ID})
	require.NoError(t, err)

	paid := fx.place(t, ptr(tables[2].ID), kopi(fx, 2)).Order
	_, err = fx.floor.Pay(fx.ctx, cashier, paid.ID, cash("300"))
	require.NoError(t, err)
	fx.place(t, ptr(tables[0].ID), kopi(fx, 1))

	s := fx.floor.Summary(time.Now())
	assert.Equal(t, 2, s.Tables[models.TableAvailable])
	assert.Equal(t, 1, s.Tables[models.TableOccupied])
	assert.Equal(t, 1, s.LinkedTables)
	assert.Equal(t, 12, s.TotalSeats)
	assert.Equal(t, 6, s.FreeSeats)
	assert.Equal(t, 1, s.Orders[models.OrderPaid])
	assert.Equal(t, 1, s.Orders[models.OrderPlaced])
	assert.Equal(t, 1, s.ActiveOrders)
	assert.Equal(t, 1, s.PaymentsToday)
	assert.True(t, decimal.NewFromInt(300).Equal(s.RevenueToday))

	tomorrow := fx.floor.Summary(time.Now().AddDate(0, 0, 1))
	assert.Zero(t, tomorrow.PaymentsToday)
	assert.True(t, tomorrow.RevenueToday.IsZero())
}

func TestCheckInvariantsFindsOutOfBandChanges(t *testing.T) {
	fx := newFixture(t)
	tables := fx.addTables(t, 4, 2, 2)
	order := fx.place(t, ptr(tables[0].ID), kopi(fx, 1)).Order
	_, err := fx.floor.MergeTables(fx.ctx, staff, []uint{tables[1].ID, tables[2].ID})
	require.NoError(t, err)
	require.Empty(t, fx.floor.CheckInvariants())

	// Another tool writes behind the floor's back.
	require.NoError(t, fx.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderCancelled).Error)
	require.NoError(t, fx.db.Model(&models.Table{}).Where("id = ?", tables[2].ID).Update("linked_to", nil).Error)

	// The in-memory view is unchanged until reloaded.
	assert.Empty(t, fx.floor.CheckInvariants())

	assert.ErrorIs(t, fx.floor.Reload(fx.ctx, staff), apperror.ErrForbidden)
	require.NoError(t, fx.floor.Reload(fx.ctx, admin))

	violations := fx.floor.CheckInvariants()
	flagged := make(map[uint]bool)
	for _, v := range violations {
		if v.Entity == models.EntityTable {
			flagged[v.ID] = true
		}
	}
	assert.True(t, flagged[tables[0].ID], "occupied table with a cancelled order")
	assert.True(t, flagged[tables[2].ID], "member missing its link")
	assert.False(t, flagged[tables[1].ID])
}

func TestViewsByTable(t *testing.T) {
	fx := newFixture(t)
	tables := fx.addTables(t, 4, 2)

	first := fx.place(t, ptr(tables[0].ID), kopi(fx, 1)).Order
	_, err := fx.floor.CancelOrder(fx.ctx, staff, first.ID)
	require.NoError(t, err)
	second := fx.place(t, ptr(tables[0].ID), kopi(fx, 2)).Order
	fx.place(t, ptr(tables[1].ID), kopi(fx, 1))
	fx.place(t, nil, kopi(fx, 1))

	history, err := fx.floor.OrdersForTable(tables[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)

	active, err := fx.floor.ActiveOrder(tables[0].ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	assert.Len(t, fx.floor.Orders(OrderFilter{Status: models.OrderPlaced}), 3)
	assert.Len(t, fx.floor.Orders(OrderFilter{TableID: ptr(tables[0].ID)}), 2)
	assert.Len(t, fx.floor.Orders(OrderFilter{Status: models.OrderCancelled, TableID: ptr(tables[0].ID)}), 1)

	_, err = fx.floor.OrdersForTable(999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = fx.floor.PaymentForOrder(second.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = fx.floor.Pay(fx.ctx, cashier, second.ID, cash("300"))
	require.NoError(t, err)
	p, err := fx.floor.PaymentForOrder(second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, p.OrderID)

	_, err = fx.floor.ActiveOrder(tables[0].ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRoleAuthorizer(t *testing.T) {
	authz := DefaultRoleAuthorizer()

	assert.NoError(t, authz.Authorize(admin, IntentAdminister))
	assert.ErrorIs(t, authz.Authorize(staff, IntentAdminister), apperror.ErrForbidden)
	assert.NoError(t, authz.Authorize(chef, IntentAdvanceOrder))
	assert.ErrorIs(t, authz.Authorize(chef, IntentSettle), apperror.ErrForbidden)
	assert.NoError(t, authz.Authorize(cashier, IntentSettle))
	assert.ErrorIs(t, authz.Authorize(cashier, IntentTakeOrder), apperror.ErrForbidden)
	assert.ErrorIs(t, authz.Authorize(models.Actor{Role: models.RoleAdmin}, IntentTakeOrder), apperror.ErrForbidden)
}
