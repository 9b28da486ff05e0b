package services

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/testutil"
)

func assertTotal(t *testing.T, o models.Order, want int64) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(o.TotalAmount), "total %s, want %d", o.TotalAmount, want)
	assert.True(t, OrderTotal(o.Items).Equal(o.TotalAmount), "total %s does not match items", o.TotalAmount)
}

func TestPlaceOrderOccupiesTable(t *testing.T) {
	fx := newFixture(t)
	table := fx.addTables(t, 4)[0]

	res := fx.place(t, ptr(table.ID), kopi(fx, 2))
	assertTotal(t, res.Order, 300)
	assert.Equal(t, models.OrderPlaced, res.Order.Status)
	assert.Equal(t, models.OrderDineIn, res.Order.OrderType)
	assert.Equal(t, staff.UserID, res.Order.CreatedBy)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "Kopi", res.Order.Items[0].Name)

	require.NotNil(t, res.Table)
	assert.Equal(t, models.TableOccupied, res.Table.Status)
	require.NotNil(t, res.Table.CurrentOrderID)
	assert.Equal(t, res.Order.ID, *res.Table.CurrentOrderID)

	active, err := fx.floor.ActiveOrder(table.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Order.ID, active.ID)

	_, err = fx.floor.PlaceOrder(fx.ctx, staff, NewOrder{TableID: ptr(table.ID), Items: []ItemRequest{kopi(fx, 1)}})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Len(t, fx.floor.Orders(OrderFilter{}), 1)

	assert.Equal(t, []string{"table", "table", "order"}, fx.events.Events())
	assert.Empty(t, fx.floor.CheckInvariants())
}

func TestTakeawayOrderHasNoTable(t *testing.T) {
	fx := newFixture(t)

	res := fx.place(t, nil, ItemRequest{MenuItemID: fx.menu[0].ID, Quantity: 1})
	assert.Equal(t, models.OrderTakeaway, res.Order.OrderType)
	assert.Nil(t, res.Order.TableID)
	assert.Nil(t, res.Table)
	assertTotal(t, res.Order, 25000)
}

func TestCreateOrderValidation(t *testing.T) {
	fx := newFixture(t)
	table := fx.addTables(t, 4)[0]

	cases := map[string][]ItemRequest{
		"no items":         nil,
		"zero quantity":    {{MenuItemID: fx.kopi.ID, Quantity: 0}},
		"quantity too big": {{MenuItemID: fx.kopi.ID, Quantity: MaxLineQuantity + 1}},
		"unknown item":     {{MenuItemID: 999, Quantity: 1}},
		"unavailable item": {{MenuItemID: fx.menu[2].ID, Quantity: 1}},
	}
	for name, items := range cases {
		_, err := fx.floor.PlaceOrder(fx.ctx, staff, NewOrder{TableID: ptr(table.ID), Items: items})
		assert.ErrorIs(t, err, apperror.ErrValidation, name)
	}
	assert.Empty(t, fx.floor.Orders(OrderFilter{}))
	assert.Equal(t, models.TableAvailable, fx.table(t, table.ID).Status)

	_, err := fx.floor.PlaceOrder(fx.ctx, staff, NewOrder{TableID: ptr(999), Items: []ItemRequest{kopi(fx, 1)}})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPlaceOrderRollsBackWhenTableCannotBeOccupied(t *testing.T) {
	fx := newFixture(t)
	table := fx.addTables(t, 4)[0]

	fx.tables.UpdateFn = func(id uint, patch store.Patch) error {
		if patchSets(patch, "status", models.TableOccupied) {
			return testutil.ErrInjected
		}
		return nil
	}

	_, err := fx.floor.PlaceOrder(fx.ctx, staff, NewOrder{TableID: ptr(table.ID), Items: []ItemRequest{kopi(fx, 2)}})
	assert.ErrorIs(t, err, testutil.ErrInjected)

	assert.Empty(t, fx.floor.Orders(OrderFilter{}))
	assert.Zero(t, fx.count(&models.Order{}))
	assert.Zero(t, fx.count(&models.OrderItem{}))
	assert.Equal(t, models.TableAvailable, fx.table(t, table.ID).Status)
	assert.Empty(t, fx.floor.CheckInvariants())
}

func TestPlaceOrderReportsReconciliationWhenRollbackFails(t *testing.T) {
	fx := newFixture(t)
	table := fx.addTables(t, 4)[0]

	fx.tables.UpdateFn = func(uint, store.Patch) error { return testutil.ErrInjected }
	fx.orders.DeleteFn = func(uint) error { return testutil.ErrInjected }

	_, err := fx.floor.PlaceOrder(fx.ctx, staff, NewOrder{TableID: ptr(table.ID), Items: []ItemRequest{kopi(fx, 2)}})
	assert.ErrorIs(t, err, apperror.ErrReconciliation)
	assert.ErrorIs(t, err, testutil.ErrInjected)

	// The orphaned order is surfaced by the diagnostics.
	assert.NotEmpty(t, fx.floor.CheckInvariants())
}

func TestTotalsFollowEveryItemMutation(t *testing.T) {
	fx := newFixture(t)
	table := fx.addTables(t, 4)[0]
	nasi := fx.menu[0]

	order := fx.place(t, ptr(table.ID), kopi(fx, 2), ItemRequest{MenuItemID: nasi.ID, Quantity: 1}).Order
	assertTotal(t, order, 25300)

	order, err := fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, 1)})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assertTotal(t, order, 25450)

	order, err = fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{{MenuItemID: fx.kopi.ID, Quantity: 1, Notes: "no sugar"}})
	require.NoError(t, err)
	require.Len(t, order.Items, 3)
	assertTotal(t, order, 25600)

	var kopiLine, nasiLine models.OrderItem
	for _, item := range order.Items {
		switch {
		case item.MenuItemID == nasi.ID:
			nasiLine = item
		case item.Notes == "":
			kopiLine = item
		}
	}
	assert.Equal(t, 3, kopiLine.Quantity)

	order, err = fx.floor.AdjustItem(fx.ctx, staff, order.ID, nasiLine.ID, 2)
	require.NoError(t, err)
	assertTotal(t, order, 75600)

	order, err = fx.floor.AdjustItem(fx.ctx, staff, order.ID, kopiLine.ID, -5)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assertTotal(t, order, 75150)

	require.NoError(t, fx.floor.Reload(fx.ctx, admin))
	assertTotal(t, fx.order(t, order.ID), 75150)
	assert.Empty(t, fx.floor.CheckInvariants())
}

func TestOpenOrdersKeepTheirCapturedPrice(t *testing.T) {
	fx := newFixture(t)
	order := fx.place(t, nil, kopi(fx, 1)).Order

	require.NoError(t, fx.db.Model(&models.MenuItem{}).Where("id = ?", fx.kopi.ID).Update("price", decimal.NewFromInt(200)).Error)

	order, err := fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, 1)})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.True(t, decimal.NewFromInt(150).Equal(order.Items[0].Price))
	assert.True(t, decimal.NewFromInt(200).Equal(order.Items[1].Price))
	assertTotal(t, order, 350)
}

func TestAdjustItemValidation(t *testing.T) {
	fx := newFixture(t)
	order := fx.place(t, nil, kopi(fx, 1)).Order

	_, err := fx.floor.AdjustItem(fx.ctx, staff, order.ID, order.Items[0].ID, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = fx.floor.AdjustItem(fx.ctx, staff, order.ID, 999, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = fx.floor.AdjustItem(fx.ctx, staff, 999, order.Items[0].ID, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = fx.floor.AddItems(fx.ctx, staff, order.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLineQuantityIsCapped(t *testing.T) {
	fx := newFixture(t)
	order := fx.place(t, nil, kopi(fx, 2)).Order
	lineID := order.Items[0].ID

	_, err := fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, math.MaxInt)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	order, err = fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, MaxLineQuantity-2)})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, MaxLineQuantity, order.Items[0].Quantity)

	_, err = fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, 1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = fx.floor.AdjustItem(fx.ctx, staff, order.ID, lineID, math.MaxInt)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	order = fx.order(t, order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, MaxLineQuantity, order.Items[0].Quantity)
	assertTotal(t, order, int64(MaxLineQuantity)*150)

	_, err = fx.floor.Pay(fx.ctx, cashier, order.ID, cash("0"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, fx.floor.Payments())
}

func TestItemsFrozenOnceServed(t *testing.T) {
	fx := newFixture(t)
	order := fx.place(t, nil, kopi(fx, 1)).Order

	_, err := fx.floor.AdvanceOrder(fx.ctx, chef, order.ID, models.OrderPreparing)
	require.NoError(t, err)
	_, err = fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, 1)})
	require.NoError(t, err)

	_, err = fx.floor.AdvanceOrder(fx.ctx, chef, order.ID, models.OrderServed)
	require.NoError(t, err)
	_, err = fx.floor.AddItems(fx.ctx, staff, order.ID, []ItemRequest{kopi(fx, 1)})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = fx.floor.AdjustItem(fx.ctx, staff, order.ID, order.Items[0].ID, -1)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestAdvanceStatusTransitions(t *testing.T) {
	fx := newFixture(t)
	order := fx.place(t, nil, kopi(fx, 1)).Order

	for _, next := range []models.OrderStatus{models.OrderServed, models.OrderPaid, models.OrderCancelled, models.OrderPlaced} {
		_, err := fx.floor.AdvanceOrder(fx.ctx, staff, order.ID, next)
		assert.ErrorIs(t, err, apperror.ErrState, string(next))
	}
	_, err := fx.floor.AdvanceOrder(fx.ctx, staff, order.ID, "eaten")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = fx.floor.AdvanceOrder(fx.ctx, cashier, order.ID, models.OrderPreparing)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	preparing, err := fx.floor.AdvanceOrder(fx.ctx, chef, order.ID, models.OrderPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, preparing.Status)

	served, err := fx.floor.AdvanceOrder(fx.ctx, staff, order.ID, models.OrderServed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderServed, served.Status)

	_, err = fx.floor.AdvanceOrder(fx.ctx, staff, order.ID, models.OrderPaid)
	assert.ErrorIs(t, err, apperror.ErrState)

	history, err := fx.floor.History(fx.ctx, models.EntityOrder, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, string(models.OrderPreparing), history[1].ToStatus)
	assert.Equal(t, chef.UserID, history[1].ActorID)
}

func TestCancelReleasesTable(t *testing.T) {
	fx := newFixture(t)
	table := fx.addTables(t, 4)[0]
	order := fx.place(t, ptr(table.ID), kopi(fx, 1)).Order

	res, err := fx.floor.CancelOrder(fx.ctx, staff, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, res.Order.Status)
	require.NotNil(t, res.Table)
	assert.Equal(t, models.TableAvailable, res.Table.Status)
	assert.Nil(t, res.Table.CurrentOrderID)
	assert.Empty(t, res.Warnings)

	_, err = fx.floor.CancelOrder(fx.ctx, staff, order.ID)
	assert.ErrorIs(t, err, apperror.ErrState)
	assert.Empty(t, fx.floor.CheckInvariants())

	// The table can be seated again.
	fx.place(t, ptr(table.ID), kopi(fx, 1))
}

func TestCancelRejectedOnceServed(t *testing.T) {
	fx := newFixture(t)
	order := fx.place(t, nil, kopi(fx, 1)).Order

	_, err := fx.floor.AdvanceOrder(fx.ctx, staff, order.ID, models.OrderPreparing)
	require.NoError(t, err)
	_, err = fx.floor.AdvanceOrder(fx.ctx, staff, order.ID, models.OrderServed)
	require.NoError(t, err)

	_, err = fx.floor.CancelOrder(fx.ctx, staff, order.ID)
	assert.ErrorIs(t, err, apperror.ErrState)
	assert.Equal(t, models.OrderServed, fx.order(t, order.ID).Status)
}
