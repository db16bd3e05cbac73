package house

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestUndoStack_RollbackOrder(t *testing.T) {
	var ran []string
	u := &undoStack{}

	u.push("first", func(context.Context) error {
		ran = append(ran, "first")
		return nil
	})
	u.push("second", func(context.Context) error {
		ran = append(ran, "second")
		return errBoom
	})
	u.push("third", func(context.Context) error {
		ran = append(ran, "third")
		return nil
	})

	u.rollback(context.Background(), zaptest.NewLogger(t))

	// a failing step does not stop the others
	assert.Equal(t, []string{"third", "second", "first"}, ran)
	assert.Empty(t, u.steps)
}

func TestUndoStack_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	u := &undoStack{}
	u.push("refund", func(ctx context.Context) error {
		seen = ctx.Err()
		return nil
	})

	u.rollback(ctx, zaptest.NewLogger(t))
	assert.NoError(t, seen)
}
