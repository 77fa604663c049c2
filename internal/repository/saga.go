package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// compensationTimeout bounds the undo phase once it is detached from the caller.
const compensationTimeout = 10 * time.Second

type sagaStep struct {
	name string
	do   func(ctx context.Context) error
	// undo must tolerate a partially applied or never applied do.
	undo func(ctx context.Context) error
}

// runSaga runs steps in order. When a step fails, the undo of that step and of
// every earlier step runs in reverse order. Undos get a context that ignores
// ctx's cancellation and deadline, so an expired request still rolls back.
func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		if err := step.do(ctx); err != nil {
			return errors.Join(err, compensate(ctx, steps[:i+1]))
		}
	}
	return nil
}

func compensate(ctx context.Context, steps []sagaStep) error {
	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].undo == nil {
			continue
		}
		if err := steps[i].undo(undoCtx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", steps[i].name, err))
		}
	}
	return errors.Join(errs...)
}
