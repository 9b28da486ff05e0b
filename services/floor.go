package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// AuditLog keeps the status change trail.
type AuditLog interface {
	Record(ctx context.Context, change models.StatusChange) error
	History(ctx context.Context, entity string, id uint) ([]models.StatusChange, error)
}

type FloorDeps struct {
	Tables     *store.TableStore
	Orders     *store.OrderStore
	Payments   *store.PaymentStore
	Catalog    Catalog
	Audit      AuditLog
	Authorizer Authorizer
	Notifier   Notifier
}

// Floor is the entry point for every staff intent. Intents run one at a
// time, and the Floor is the only place that chains the topology, order and
// payment components.
type Floor struct {
	mu sync.Mutex

	tables   *store.TableStore
	orders   *store.OrderStore
	payments *store.PaymentStore

	topology  *TopologyManager
	lifecycle *OrderLifecycle
	engine    *PaymentEngine

	audit  AuditLog
	authz  Authorizer
	notify Notifier
}

func NewFloor(deps FloorDeps) *Floor {
	f := &Floor{
		tables:    deps.Tables,
		orders:    deps.Orders,
		payments:  deps.Payments,
		topology:  NewTopologyManager(deps.Tables),
		lifecycle: NewOrderLifecycle(deps.Orders, deps.Catalog),
		engine:    NewPaymentEngine(deps.Payments),
		audit:     deps.Audit,
		authz:     deps.Authorizer,
		notify:    deps.Notifier,
	}
	if f.authz == nil {
		f.authz = DefaultRoleAuthorizer()
	}
	if f.notify == nil {
		f.notify = nopNotifier{}
	}
	return f
}

// NewOrder is a request to open an order, on a table or as takeaway.
type NewOrder struct {
	TableID *uint         `json:"table_id"`
	Items   []ItemRequest `json:"items"`
}

// OrderResult carries an order intent's outcome. Warnings report secondary
// effects that failed after the order change was committed.
type OrderResult struct {
	Order    models.Order  `json:"order"`
	Table    *models.Table `json:"table,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

type SettlementResult struct {
	Payment  models.Payment `json:"payment"`
	Order    models.Order   `json:"order"`
	Table    *models.Table  `json:"table,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Load fills every store from its backend.
func (f *Floor) Load(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx)
}

// Reload discards the in-memory state and reads everything back.
func (f *Floor) Reload(ctx context.Context, actor models.Actor) error {
	if err := f.authz.Authorize(actor, IntentAdminister); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx)
}

func (f *Floor) load(ctx context.Context) error {
	if err := f.tables.Load(ctx); err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	if err := f.orders.Load(ctx); err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	if err := f.payments.Load(ctx); err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	return nil
}

func (f *Floor) AddTable(ctx context.Context, actor models.Actor, capacity int) (models.Table, error) {
	if err := f.authz.Authorize(actor, IntentManageTables); err != nil {
		return models.Table{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.topology.AddTable(ctx, capacity)
	if err != nil {
		return models.Table{}, err
	}
	f.recordTable(ctx, actor, t.ID, "", t.Status)
	f.notify.TableChanged(t)
	return t, nil
}

func (f *Floor) DeleteTable(ctx context.Context, actor models.Actor, id uint) error {
	if err := f.authz.Authorize(actor, IntentManageTables); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.topology.DeleteTable(ctx, id)
	if err != nil {
		return err
	}
	f.notify.TableRemoved(t)
	return nil
}

func (f *Floor) SetTableStatus(ctx context.Context, actor models.Actor, id uint, status models.TableStatus) (models.Table, error) {
	if err := f.authz.Authorize(actor, IntentManageTables); err != nil {
		return models.Table{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	before, _ := f.tables.Get(id)
	t, err := f.topology.SetStatus(ctx, id, status)
	if err != nil {
		return models.Table{}, err
	}
	if before.Status != t.Status {
		f.recordTable(ctx, actor, t.ID, before.Status, t.Status)
		f.notify.TableChanged(t)
	}
	return t, nil
}

func (f *Floor) MergeTables(ctx context.Context, actor models.Actor, ids []uint) (models.Table, error) {
	if err := f.authz.Authorize(actor, IntentManageTables); err != nil {
		return models.Table{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	primary, err := f.topology.MergeTables(ctx, ids)
	if err != nil {
		f.logFailure("merge tables", err, logrus.Fields{"tables": ids})
		return models.Table{}, err
	}
	f.notify.TableChanged(primary)
	for _, m := range f.tables.Members(primary) {
		f.notify.TableChanged(m)
	}
	return primary, nil
}

func (f *Floor) UnmergeTables(ctx context.Context, actor models.Actor, primaryID uint) (UnmergeResult, error) {
	if err := f.authz.Authorize(actor, IntentManageTables); err != nil {
		return UnmergeResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	res, err := f.topology.UnmergeTables(ctx, primaryID)
	if err != nil {
		f.logFailure("unmerge tables", err, logrus.Fields{"table_id": primaryID})
		return UnmergeResult{}, err
	}
	f.notify.TableChanged(res.Primary)
	for _, m := range res.Members {
		f.notify.TableChanged(m)
	}
	return res, nil
}

func (f *Floor) SplitTable(ctx context.Context, actor models.Actor, id uint, newCapacity int) (SplitResult, error) {
	if err := f.authz.Authorize(actor, IntentManageTables); err != nil {
		return SplitResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	res, err := f.topology.SplitTable(ctx, id, newCapacity)
	if err != nil {
		f.logFailure("split table", err, logrus.Fields{"table_id": id})
		return SplitResult{}, err
	}
	f.recordTable(ctx, actor, res.Created.ID, "", res.Created.Status)
	f.notify.TableChanged(res.Source)
	f.notify.TableChanged(res.Created)
	return res, nil
}

// PlaceOrder opens an order and, for dine-in, seats it on the table. An
// order whose table cannot be occupied is deleted again.
func (f *Floor) PlaceOrder(ctx context.Context, actor models.Actor, req NewOrder) (OrderResult, error) {
	if err := f.authz.Authorize(actor, IntentTakeOrder); err != nil {
		return OrderResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var before models.Table
	if req.TableID != nil {
		t, err := f.topology.Seatable(ctx, *req.TableID)
		if err != nil {
			return OrderResult{}, err
		}
		before = t
	}

	order, err := f.lifecycle.CreateOrder(ctx, req.TableID, req.Items, actor)
	if err != nil {
		return OrderResult{}, err
	}

	res := OrderResult{Order: order}
	if req.TableID != nil {
		table, err := f.topology.Occupy(ctx, *req.TableID, order.ID)
		if err != nil {
			if delErr := f.lifecycle.Discard(ctx, order.ID); delErr != nil {
				f.logFailure("place order", delErr, logrus.Fields{"order_id": order.ID, "table_id": *req.TableID})
				return OrderResult{}, apperror.Reconciliation("place order", err, delErr)
			}
			return OrderResult{}, err
		}
		res.Table = &table
		f.recordTable(ctx, actor, table.ID, before.Status, table.Status)
		f.notify.TableChanged(table)
	}

	f.recordOrder(ctx, actor, order.ID, "", order.Status)
	f.notify.OrderChanged(order)
	return res, nil
}

func (f *Floor) AddItems(ctx context.Context, actor models.Actor, orderID uint, items []ItemRequest) (models.Order, error) {
	if err := f.authz.Authorize(actor, IntentTakeOrder); err != nil {
		return models.Order{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, err := f.lifecycle.AddItems(ctx, orderID, items)
	if err != nil {
		return models.Order{}, err
	}
	f.notify.OrderChanged(order)
	return order, nil
}

func (f *Floor) AdjustItem(ctx context.Context, actor models.Actor, orderID, itemID uint, delta int) (models.Order, error) {
	if err := f.authz.Authorize(actor, IntentTakeOrder); err != nil {
		return models.Order{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, err := f.lifecycle.AdjustQuantity(ctx, orderID, itemID, delta)
	if err != nil {
		return models.Order{}, err
	}
	f.notify.OrderChanged(order)
	return order, nil
}

func (f *Floor) AdvanceOrder(ctx context.Context, actor models.Actor, orderID uint, next models.OrderStatus) (models.Order, error) {
	if err := f.authz.Authorize(actor, IntentAdvanceOrder); err != nil {
		return models.Order{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, from, err := f.lifecycle.AdvanceStatus(ctx, orderID, next)
	if err != nil {
		f.logFailure("advance order", err, logrus.Fields{"order_id": orderID, "next": next})
		return models.Order{}, err
	}
	f.recordOrder(ctx, actor, order.ID, from, order.Status)
	f.notify.OrderChanged(order)
	return order, nil
}

// CancelOrder abandons an order and frees its table.
func (f *Floor) CancelOrder(ctx context.Context, actor models.Actor, orderID uint) (OrderResult, error) {
	if err := f.authz.Authorize(actor, IntentCancelOrder); err != nil {
		return OrderResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, from, err := f.lifecycle.Cancel(ctx, orderID)
	if err != nil {
		f.logFailure("cancel order", err, logrus.Fields{"order_id": orderID})
		return OrderResult{}, err
	}
	f.recordOrder(ctx, actor, order.ID, from, order.Status)
	f.notify.OrderChanged(order)

	res := OrderResult{Order: order}
	res.Table, res.Warnings = f.release(ctx, actor, order)
	return res, nil
}

// Pay settles an order in full and frees its table. The order and any
// existing payment are re-read from the backend first.
func (f *Floor) Pay(ctx context.Context, actor models.Actor, orderID uint, req PaymentRequest) (SettlementResult, error) {
	if err := f.authz.Authorize(actor, IntentSettle); err != nil {
		return SettlementResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	order, err := f.orders.Refresh(ctx, orderID)
	if err != nil {
		return SettlementResult{}, err
	}

	var (
		paid models.Order
		from models.OrderStatus
	)
	payment, err := f.engine.Settle(ctx, order, req, actor, func(ctx context.Context) error {
		var err error
		paid, from, err = f.lifecycle.MarkPaid(ctx, order.ID)
		return err
	})
	if err != nil {
		f.logFailure("pay order", err, logrus.Fields{"order_id": orderID})
		return SettlementResult{}, err
	}
	f.recordOrder(ctx, actor, paid.ID, from, paid.Status)
	f.notify.PaymentRecorded(payment, paid)

	res := SettlementResult{Payment: payment, Order: paid}
	res.Table, res.Warnings = f.release(ctx, actor, paid)
	return res, nil
}

// release frees the table of a closed dine-in order. A failure is reported
// as a warning because the order change already stands.
func (f *Floor) release(ctx context.Context, actor models.Actor, order models.Order) (*models.Table, []string) {
	if order.TableID == nil {
		return nil, nil
	}
	before, _ := f.tables.Get(*order.TableID)
	table, err := f.topology.Release(ctx, *order.TableID, order.ID)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"table_id": *order.TableID,
		}).Errorf("table release failed: %v", err)
		return nil, []string{fmt.Sprintf("order %d is %s but table %d was not released: %v", order.ID, order.Status, *order.TableID, err)}
	}
	f.recordTable(ctx, actor, table.ID, before.Status, table.Status)
	f.notify.TableChanged(table)
	return &table, nil
}

func (f *Floor) recordTable(ctx context.Context, actor models.Actor, id uint, from, to models.TableStatus) {
	f.record(ctx, actor, models.EntityTable, id, string(from), string(to))
}

func (f *Floor) recordOrder(ctx context.Context, actor models.Actor, id uint, from, to models.OrderStatus) {
	f.record(ctx, actor, models.EntityOrder, id, string(from), string(to))
}

// record writes an audit row. The audited change has already been applied,
// so a failure here is only logged.
func (f *Floor) record(ctx context.Context, actor models.Actor, entity string, id uint, from, to string) {
	if f.audit == nil || from == to {
		return
	}
	err := f.audit.Record(ctx, models.StatusChange{
		Entity:     entity,
		EntityID:   id,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
	})
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"entity":    entity,
			"entity_id": id,
		}).Errorf("failed to record status change: %v", err)
	}
}

func (f *Floor) logFailure(op string, err error, fields logrus.Fields) {
	fields["kind"] = apperror.KindOf(err)
	switch apperror.KindOf(err) {
	case apperror.KindReconciliation, apperror.KindState, apperror.KindUnavailable, "":
		utils.ErrorLogger.WithFields(fields).Errorf("%s: %v", op, err)
	default:
		utils.InfoLogger.WithFields(fields).Infof("%s rejected: %v", op, err)
	}
}
