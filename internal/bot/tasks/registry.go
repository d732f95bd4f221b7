package tasks

import (
	"context"
	"time"

	"github.com/edgard/dymbot/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context
// provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used in the scheduler config.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	tasks := map[string]ScheduledTaskFunc{
		config.SessionSweepTask:   newSessionSweepTask(deps),
		config.SQLMaintenanceTask: newSQLMaintenanceTask(deps),
		config.EnvelopePruneTask:  newEnvelopePruneTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
