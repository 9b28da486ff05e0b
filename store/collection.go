package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/yeremiapane/restaurant-floor/apperror"
)

// Collection is the canonical in-memory copy of one entity type, indexed by
// id. The index only changes after the backend confirms a mutation, so a
// failed call leaves the last known good state visible.
//
// Reads and patch updates are retried on transient failures. Creates and
// deletes are attempted once: a lost confirmation would otherwise replay
// the mutation.
type Collection[T Entity] struct {
	name    string
	backend Backend[T]
	retry   RetryPolicy

	mu    sync.RWMutex
	index map[uint]T
}

func NewCollection[T Entity](name string, backend Backend[T], retry RetryPolicy) *Collection[T] {
	return &Collection[T]{
		name:    name,
		backend: backend,
		retry:   retry,
		index:   make(map[uint]T),
	}
}

// Load replaces the index with the backend's full contents.
func (c *Collection[T]) Load(ctx context.Context) error {
	var recs []T
	err := c.retry.Do(ctx, func() error {
		var err error
		recs, err = c.backend.FetchAll(ctx)
		return err
	})
	if err != nil {
		return err
	}

	index := make(map[uint]T, len(recs))
	for _, rec := range recs {
		index[rec.EntityID()] = rec
	}

	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
	return nil
}

// All returns every record ordered by id.
func (c *Collection[T]) All() []T {
	return c.Filter(func(T) bool { return true })
}

func (c *Collection[T]) Filter(keep func(T) bool) []T {
	c.mu.RLock()
	out := make([]T, 0, len(c.index))
	for _, rec := range c.index {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}

// Get resolves id against the index without a round trip.
func (c *Collection[T]) Get(id uint) (T, error) {
	c.mu.RLock()
	rec, ok := c.index[id]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, apperror.NotFound(c.name, id)
	}
	return rec, nil
}

// Refresh re-reads id from the backend and updates the index with the result.
func (c *Collection[T]) Refresh(ctx context.Context, id uint) (T, error) {
	var rec T
	err := c.retry.Do(ctx, func() error {
		var err error
		rec, err = c.backend.FetchOne(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			c.evict(id)
		}
		var zero T
		return zero, err
	}
	c.put(rec)
	return rec, nil
}

func (c *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	if err := c.backend.Create(ctx, &rec); err != nil {
		var zero T
		return zero, err
	}
	c.put(rec)
	return rec, nil
}

func (c *Collection[T]) Update(ctx context.Context, id uint, patch Patch) (T, error) {
	var rec T
	err := c.retry.Do(ctx, func() error {
		var err error
		rec, err = c.backend.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			c.evict(id)
		}
		var zero T
		return zero, err
	}
	c.put(rec)
	return rec, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id uint) error {
	err := c.backend.Delete(ctx, id)
	if err == nil || errors.Is(err, apperror.ErrNotFound) {
		c.evict(id)
	}
	return err
}

func (c *Collection[T]) put(rec T) {
	c.mu.Lock()
	c.index[rec.EntityID()] = rec
	c.mu.Unlock()
}

func (c *Collection[T]) evict(id uint) {
	c.mu.Lock()
	delete(c.index, id)
	c.mu.Unlock()
}
