package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/testutil"
)

var (
	admin   = models.Actor{UserID: 1, Role: models.RoleAdmin}
	staff   = models.Actor{UserID: 2, Role: models.RoleStaff}
	cashier = models.Actor{UserID: 3, Role: models.RoleCashier}
	chef    = models.Actor{UserID: 4, Role: models.RoleChef}
)

var fastRetry = store.RetryPolicy{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(e string) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) TableChanged(models.Table) { n.add("table") }
func (n *recordingNotifier) TableRemoved(models.Table) { n.add("table_removed") }
func (n *recordingNotifier) OrderChanged(models.Order) { n.add("order") }
func (n *recordingNotifier) PaymentRecorded(models.Payment, models.Order) { n.add("payment") }

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	floor *Floor

	tables   *testutil.Faulty[models.Table]
	orders   *testutil.FaultyOrders
	payments *testutil.FaultyPayments
	events   *recordingNotifier

	menu []models.MenuItem
	// kopi is priced 150.
	kopi models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	fx := &fixture{
		ctx:      context.Background(),
		db:       db,
		tables:   testutil.NewFaulty[models.Table](store.NewGormTableBackend(db, time.Second)),
		orders:   testutil.NewFaultyOrders(store.NewGormOrderBackend(db, time.Second)),
		payments: testutil.NewFaultyPayments(store.NewGormPaymentBackend(db, time.Second)),
		events:   &recordingNotifier{},
		menu:     testutil.SeedMenu(t, db),
	}
	fx.kopi = models.MenuItem{Name: "Kopi", Price: decimal.NewFromInt(150), Available: true}
	require.NoError(t, db.Create(&fx.kopi).Error)

	fx.floor = fx.newFloor()
	require.NoError(t, fx.floor.Load(fx.ctx))
	return fx
}

// newFloor builds another floor over the same backends, as a second terminal would.
func (fx *fixture) newFloor() *Floor {
	return NewFloor(FloorDeps{
		Tables:   store.NewTableStore(fx.tables, fastRetry),
		Orders:   store.NewOrderStore(fx.orders, fastRetry),
		Payments: store.NewPaymentStore(fx.payments, fastRetry),
		Catalog:  store.NewGormCatalog(fx.db, time.Second),
		Audit:    store.NewGormAuditLog(fx.db, time.Second),
		Notifier: fx.events,
	})
}

func (fx *fixture) addTables(t *testing.T, capacities ...int) []models.Table {
	t.Helper()
	out := make([]models.Table, len(capacities))
	for i, c := range capacities {
		tbl, err := fx.floor.AddTable(fx.ctx, staff, c)
		require.NoError(t, err)
		out[i] = tbl
	}
	return out
}

func (fx *fixture) place(t *testing.T, tableID *uint, items ...ItemRequest) OrderResult {
	t.Helper()
	res, err := fx.floor.PlaceOrder(fx.ctx, staff, NewOrder{TableID: tableID, Items: items})
	require.NoError(t, err)
	return res
}

func (fx *fixture) table(t *testing.T, id uint) models.Table {
	t.Helper()
	tbl, err := fx.floor.Table(id)
	require.NoError(t, err)
	return tbl
}

func (fx *fixture) order(t *testing.T, id uint) models.Order {
	t.Helper()
	o, err := fx.floor.Order(id)
	require.NoError(t, err)
	return o
}

func (fx *fixture) count(model interface{}) int64 {
	var n int64
	fx.db.Model(model).Count(&n)
	return n
}

func kopi(fx *fixture, qty int) ItemRequest {
	return ItemRequest{MenuItemID: fx.kopi.ID, Quantity: qty}
}

func cash(amount string) PaymentRequest {
	return PaymentRequest{Method: models.PaymentCash, AmountTendered: decimal.RequireFromString(amount)}
}

func card(amount string) PaymentRequest {
	return PaymentRequest{Method: models.PaymentCard, AmountTendered: decimal.RequireFromString(amount)}
}

func ptr(id uint) *uint { return &id }

// patchSets reports whether patch assigns value to key.
func patchSets(patch store.Patch, key string, value interface{}) bool {
	v, ok := patch[key]
	return ok && v == value
}
