package house

import (
	"context"

	"go.uber.org/zap"
)

// undoStack records compensations for external effects already applied by
// an operation, replayed newest first when a later step fails.
type undoStack struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

func (u *undoStack) push(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// rollback runs every compensation even if the caller's context is done.
func (u *undoStack) rollback(ctx context.Context, logger *zap.Logger) {
	ctx = context.WithoutCancel(ctx)

	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		err := step.fn(ctx)
		if err != nil {
			CompensationFailuresTotal.Inc()
			logger.Error("compensation-failed",
				zap.String("step", step.name),
				zap.Error(err))
			continue
		}
		logger.Debug("compensation-applied", zap.String("step", step.name))
	}
	u.steps = nil
}
