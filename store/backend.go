// Package store holds the entity stores of the floor: id-indexed in-memory
// collections of tables, orders and payments, each backed by an external store
// that must confirm a mutation before the index reflects it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/apperror"
)

// Entity is a record addressable by a numeric id.
type Entity interface {
	EntityID() uint
}

// Patch is a partial update keyed by column name. A nil value clears the column.
type Patch map[string]interface{}

// Backend is the external store behind a collection.
type Backend[T Entity] interface {
	FetchAll(ctx context.Context) ([]T, error)
	FetchOne(ctx context.Context, id uint) (T, error)
	// Create assigns the id and any store defaults on rec.
	Create(ctx context.Context, rec *T) error
	// Update applies patch and returns the canonical record; NotFound if id is absent.
	Update(ctx context.Context, id uint, patch Patch) (T, error)
	Delete(ctx context.Context, id uint) error
}

// GormBackend implements Backend over a gorm connection.
type GormBackend[T Entity] struct {
	db       *gorm.DB
	entity   string
	timeout  time.Duration
	preloads []string
}

func NewGormBackend[T Entity](db *gorm.DB, entity string, timeout time.Duration, preloads ...string) *GormBackend[T] {
	return &GormBackend[T]{db: db, entity: entity, timeout: timeout, preloads: preloads}
}

func (b *GormBackend[T]) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if b.timeout <= 0 {
		return b.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

func (b *GormBackend[T]) withPreloads(db *gorm.DB) *gorm.DB {
	for _, p := range b.preloads {
		db = db.Preload(p, func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	}
	return db
}

func (b *GormBackend[T]) FetchAll(ctx context.Context) ([]T, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var out []T
	if err := b.withPreloads(db).Order("id").Find(&out).Error; err != nil {
		return nil, b.translate("fetch all", 0, err)
	}
	return out, nil
}

func (b *GormBackend[T]) FetchOne(ctx context.Context, id uint) (T, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var out T
	if err := b.withPreloads(db).First(&out, id).Error; err != nil {
		var zero T
		return zero, b.translate("fetch", id, err)
	}
	return out, nil
}

func (b *GormBackend[T]) Create(ctx context.Context, rec *T) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	if err := db.Create(rec).Error; err != nil {
		return b.translate("create", 0, err)
	}
	return nil
}

func (b *GormBackend[T]) Update(ctx context.Context, id uint, patch Patch) (T, error) {
	var zero T
	if len(patch) == 0 {
		return zero, apperror.Validation("empty %s patch", b.entity)
	}

	db, cancel := b.conn(ctx)
	defer cancel()

	if err := db.Model(new(T)).Where("id = ?", id).Updates(map[string]interface{}(patch)).Error; err != nil {
		return zero, b.translate("update", id, err)
	}

	var out T
	if err := b.withPreloads(db).First(&out, id).Error; err != nil {
		return zero, b.translate("update", id, err)
	}
	return out, nil
}

func (b *GormBackend[T]) Delete(ctx context.Context, id uint) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	res := db.Delete(new(T), id)
	if res.Error != nil {
		return b.translate("delete", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(b.entity, id)
	}
	return nil
}

// translate maps driver and gorm errors into the apperror taxonomy.
func (b *GormBackend[T]) translate(op string, id uint, err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(b.entity, id)
	case isDuplicate(err):
		return apperror.Conflict(nil, "%s already exists", b.entity)
	case isTransient(err):
		return apperror.Unavailable(op+" "+b.entity, err)
	}
	return fmt.Errorf("%s %s: %w", op, b.entity, err)
}
