package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// TopologyManager owns table creation, merge groups and splits, and is the
// only writer of table status.
type TopologyManager struct {
	tables *store.TableStore
}

func NewTopologyManager(tables *store.TableStore) *TopologyManager {
	return &TopologyManager{tables: tables}
}

type SplitResult struct {
	Source  models.Table `json:"source"`
	Created models.Table `json:"created"`
}

type UnmergeResult struct {
	Primary models.Table   `json:"primary"`
	Members []models.Table `json:"members"`
}

// AddTable appends a table numbered one past the highest in use.
func (m *TopologyManager) AddTable(ctx context.Context, capacity int) (models.Table, error) {
	if capacity < 1 {
		return models.Table{}, apperror.Validation("capacity must be at least 1, got %d", capacity)
	}
	return m.tables.CreateNext(ctx, capacity)
}

// MergeTables joins ids into one seating unit. The lowest id becomes the
// primary and carries the combined capacity; the others point at it.
func (m *TopologyManager) MergeTables(ctx context.Context, ids []uint) (models.Table, error) {
	set := models.NewIDSet(ids...)
	if len(set) < 2 {
		return models.Table{}, apperror.Validation("merge needs at least two distinct tables")
	}

	snapshot := make([]models.Table, 0, len(set))
	for _, id := range set {
		t, err := m.tables.Refresh(ctx, id)
		if err != nil {
			return models.Table{}, err
		}
		if err := mergeable(t); err != nil {
			return models.Table{}, err
		}
		snapshot = append(snapshot, t)
	}

	primary := snapshot[0]
	capacity := 0
	steps := make([]step, 0, len(snapshot))
	for _, t := range snapshot {
		capacity += t.Capacity
		if t.ID == primary.ID {
			continue
		}
		steps = append(steps, step{
			id:    t.ID,
			apply: store.Patch{"linked_to": primary.ID},
			undo:  store.Patch{"linked_to": nil},
		})
	}
	steps = append(steps, step{
		id:    primary.ID,
		apply: store.Patch{"merged_with": set[1:], "capacity": capacity},
		undo:  store.Patch{"merged_with": models.IDSet(nil), "capacity": primary.Capacity},
	})

	if err := applyTableSteps(ctx, m.tables, "merge tables", steps); err != nil {
		return models.Table{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"primary":  primary.ID,
		"members":  set[1:],
		"capacity": capacity,
	}).Info("tables merged")
	return m.tables.Get(primary.ID)
}

func mergeable(t models.Table) error {
	switch {
	case t.IsMerged():
		return apperror.Conflict(t, "table %d is already merged", t.TableNumber)
	case t.IsLinked():
		return apperror.Conflict(t, "table %d belongs to another merge group", t.TableNumber)
	case t.Status != models.TableAvailable || t.CurrentOrderID != nil:
		return apperror.Conflict(t, "table %d is %s", t.TableNumber, t.Status)
	}
	return nil
}

// UnmergeTables dissolves the merge group led by primaryID, giving each
// member its own capacity back.
func (m *TopologyManager) UnmergeTables(ctx context.Context, primaryID uint) (UnmergeResult, error) {
	primary, err := m.tables.Refresh(ctx, primaryID)
	if err != nil {
		return UnmergeResult{}, err
	}
	if !primary.IsMerged() {
		return UnmergeResult{}, apperror.NotFound("merge group of table", primaryID)
	}
	if primary.CurrentOrderID != nil {
		return UnmergeResult{}, apperror.Conflict(primary, "table %d has an active order", primary.TableNumber)
	}

	restored := primary.Capacity
	steps := make([]step, 0, len(primary.MergedWith)+1)
	for _, id := range primary.MergedWith {
		member, err := m.tables.Refresh(ctx, id)
		if err != nil {
			return UnmergeResult{}, err
		}
		restored -= member.Capacity
		steps = append(steps, step{
			id:    member.ID,
			apply: store.Patch{"linked_to": nil},
			undo:  store.Patch{"linked_to": primary.ID},
		})
	}
	if restored < 1 {
		return UnmergeResult{}, apperror.Conflict(primary, "table %d capacity %d does not cover its members", primary.TableNumber, primary.Capacity)
	}
	steps = append(steps, step{
		id:    primary.ID,
		apply: store.Patch{"merged_with": models.IDSet(nil), "capacity": restored},
		undo:  store.Patch{"merged_with": primary.MergedWith, "capacity": primary.Capacity},
	})

	if err := applyTableSteps(ctx, m.tables, "unmerge tables", steps); err != nil {
		return UnmergeResult{}, err
	}

	var res UnmergeResult
	res.Primary, _ = m.tables.Get(primary.ID)
	for _, id := range primary.MergedWith {
		if t, err := m.tables.Get(id); err == nil {
			res.Members = append(res.Members, t)
		}
	}
	return res, nil
}

// SplitTable carves newCapacity seats off an idle table into a new table.
func (m *TopologyManager) SplitTable(ctx context.Context, id uint, newCapacity int) (SplitResult, error) {
	if newCapacity < 1 {
		return SplitResult{}, apperror.Validation("new capacity must be at least 1, got %d", newCapacity)
	}

	source, err := m.tables.Refresh(ctx, id)
	if err != nil {
		return SplitResult{}, err
	}
	switch {
	case source.IsMerged() || source.IsLinked():
		return SplitResult{}, apperror.Conflict(source, "table %d is part of a merge group, unmerge it first", source.TableNumber)
	case source.Status != models.TableAvailable || source.CurrentOrderID != nil:
		return SplitResult{}, apperror.Conflict(source, "table %d is %s", source.TableNumber, source.Status)
	case newCapacity >= source.Capacity:
		return SplitResult{}, apperror.Validation("new capacity %d must be below the table capacity %d", newCapacity, source.Capacity)
	}

	created, err := m.tables.CreateNext(ctx, newCapacity)
	if err != nil {
		return SplitResult{}, err
	}

	reduced, err := m.tables.Update(ctx, source.ID, store.Patch{"capacity": source.Capacity - newCapacity})
	if err != nil {
		if delErr := m.tables.Delete(ctx, created.ID); delErr != nil {
			return SplitResult{}, apperror.Reconciliation("split table", err, delErr)
		}
		return SplitResult{}, err
	}
	return SplitResult{Source: reduced, Created: created}, nil
}

// DeleteTable removes an idle, ungrouped table.
func (m *TopologyManager) DeleteTable(ctx context.Context, id uint) (models.Table, error) {
	t, err := m.tables.Refresh(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	switch {
	case t.IsMerged() || t.IsLinked():
		return models.Table{}, apperror.Conflict(t, "table %d is part of a merge group", t.TableNumber)
	case t.Status != models.TableAvailable || t.CurrentOrderID != nil:
		return models.Table{}, apperror.Conflict(t, "table %d is %s", t.TableNumber, t.Status)
	}
	if err := m.tables.Delete(ctx, id); err != nil {
		return models.Table{}, err
	}
	return t, nil
}

// SetStatus toggles a table between available and reserved. Occupancy only
// follows orders.
func (m *TopologyManager) SetStatus(ctx context.Context, id uint, status models.TableStatus) (models.Table, error) {
	if status != models.TableAvailable && status != models.TableReserved {
		return models.Table{}, apperror.Validation("table status can only be set to %s or %s", models.TableAvailable, models.TableReserved)
	}

	t, err := m.tables.Refresh(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	switch {
	case t.IsLinked():
		return models.Table{}, apperror.Conflict(t, "table %d is linked to table %d", t.TableNumber, *t.LinkedTo)
	case t.Status == models.TableOccupied || t.CurrentOrderID != nil:
		return models.Table{}, apperror.Conflict(t, "table %d is occupied", t.TableNumber)
	case t.Status == status:
		return t, nil
	}
	return m.tables.Update(ctx, id, store.Patch{"status": status})
}

// Seatable returns the table if a new order may be placed on it.
func (m *TopologyManager) Seatable(ctx context.Context, id uint) (models.Table, error) {
	t, err := m.tables.Refresh(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	switch {
	case t.IsLinked():
		return models.Table{}, apperror.Conflict(t, "table %d is merged into table %d", t.TableNumber, *t.LinkedTo)
	case t.Status == models.TableOccupied || t.CurrentOrderID != nil:
		return models.Table{}, apperror.Conflict(t, "table %d is occupied", t.TableNumber)
	}
	return t, nil
}

// Occupy binds orderID to the table and marks it occupied in one update.
func (m *TopologyManager) Occupy(ctx context.Context, id, orderID uint) (models.Table, error) {
	if _, err := m.Seatable(ctx, id); err != nil {
		return models.Table{}, err
	}
	return m.tables.Update(ctx, id, store.Patch{
		"status":           models.TableOccupied,
		"current_order_id": orderID,
	})
}

// Release frees the table held by orderID.
func (m *TopologyManager) Release(ctx context.Context, id, orderID uint) (models.Table, error) {
	t, err := m.tables.Refresh(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	if t.CurrentOrderID == nil || *t.CurrentOrderID != orderID {
		return models.Table{}, apperror.Conflict(t, "table %d is not held by order %d", t.TableNumber, orderID)
	}
	return m.tables.Update(ctx, id, store.Patch{
		"status":           models.TableAvailable,
		"current_order_id": nil,
	})
}
