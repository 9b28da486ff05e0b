package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

// TableStore owns the Table records of the floor.
type TableStore struct {
	*Collection[models.Table]
}

func NewTableStore(backend Backend[models.Table], retry RetryPolicy) *TableStore {
	return &TableStore{Collection: NewCollection[models.Table]("table", backend, retry)}
}

func NewGormTableBackend(db *gorm.DB, timeout time.Duration) *GormBackend[models.Table] {
	return NewGormBackend[models.Table](db, "table", timeout)
}

// NextTableNumber is one past the highest table number in use, or 1 for an empty floor.
func (s *TableStore) NextTableNumber() int {
	next := 1
	for _, t := range s.All() {
		if t.TableNumber >= next {
			next = t.TableNumber + 1
		}
	}
	return next
}

// CreateNext inserts an available table numbered after the highest one in
// use. A duplicate number means another terminal added a table since the
// last load, so the tables are reloaded and the insert is tried once more.
func (s *TableStore) CreateNext(ctx context.Context, capacity int) (models.Table, error) {
	rec := models.Table{Capacity: capacity, Status: models.TableAvailable}
	for attempt := 0; ; attempt++ {
		rec.TableNumber = s.NextTableNumber()
		created, err := s.Create(ctx, rec)
		if err == nil || attempt > 0 || !errors.Is(err, apperror.ErrConflict) {
			return created, err
		}
		if err := s.Load(ctx); err != nil {
			return models.Table{}, err
		}
	}
}

// Members returns the linked members of a merge primary.
func (s *TableStore) Members(primary models.Table) []models.Table {
	return s.Filter(func(t models.Table) bool {
		return t.LinkedTo != nil && *t.LinkedTo == primary.ID
	})
}
