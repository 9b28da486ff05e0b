package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/store"
)

// step is one patch of a multi-record update together with the patch that
// restores the record's snapshot.
type step struct {
	id    uint
	apply store.Patch
	undo  store.Patch
}

// applyTableSteps applies steps in order. On the first failure every applied
// step is undone in reverse; if an undo fails too the result is a
// reconciliation error carrying both causes.
func applyTableSteps(ctx context.Context, tables *store.TableStore, op string, steps []step) error {
	for i, s := range steps {
		if _, err := tables.Update(ctx, s.id, s.apply); err != nil {
			var undoErrs []error
			for j := i - 1; j >= 0; j-- {
				if _, uerr := tables.Update(ctx, steps[j].id, steps[j].undo); uerr != nil {
					undoErrs = append(undoErrs, fmt.Errorf("restore table %d: %w", steps[j].id, uerr))
				}
			}
			if len(undoErrs) > 0 {
				return apperror.Reconciliation(op, err, errors.Join(undoErrs...))
			}
			return err
		}
	}
	return nil
}
