package tasks

import (
	"context"
)

// newSessionSweepTask creates the task that drops sessions idle past their TTL.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_sweep")

	return func(ctx context.Context) error {
		dropped := deps.Sessions.Sweep()
		if dropped > 0 {
			log.InfoContext(ctx, "Expired sessions dropped", "dropped", dropped, "remaining", deps.Sessions.Len())
			return nil
		}
		log.DebugContext(ctx, "No expired sessions", "remaining", deps.Sessions.Len())
		return nil
	}
}
