package simulate

import (
	"context"
	"log/slog"
	"time"

	"github.com/zuoanCo/visual-modal/internal/metrics"
)

// Task is one periodically updated widget.
type Task interface {
	Name() string
	Interval() time.Duration
	// Step advances the widget state once. It is only ever called from the
	// goroutine running the task.
	Step(now time.Time)
}

// TickFunc observes a completed step of the named widget.
type TickFunc func(widget string)

// Run steps task on its interval until ctx is cancelled. onTick may be nil.
//
// Blocks until ctx is cancelled.
func Run(ctx context.Context, task Task, logger *slog.Logger, onTick TickFunc) {
	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	logger.Debug("widget task started", "widget", task.Name(), "interval_ms", task.Interval().Milliseconds())

	for {
		select {
		case <-ctx.Done():
			logger.Debug("widget task stopped", "widget", task.Name())
			return
		case now := <-ticker.C:
			task.Step(now)
			metrics.IncWidgetTicks(task.Name())
			if onTick != nil {
				onTick(task.Name())
			}
		}
	}
}
