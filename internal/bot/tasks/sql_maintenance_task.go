package tasks

import (
	"context"
	"fmt"

	"github.com/edgard/dymbot/internal/database"
)

// newSQLMaintenanceTask creates the task that compacts the SQLite file.
// Postgres relies on autovacuum, so the task does nothing there.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	driver := deps.Config.Database.Driver
	log := deps.Logger.With("task", "sql_maintenance", "driver", driver)

	return func(ctx context.Context) error {
		if driver == database.DriverPostgres {
			log.DebugContext(ctx, "Skipping SQL maintenance on postgres")
			return nil
		}

		started := deps.Now()
		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "duration", deps.Now().Sub(started), "error", err)
			return fmt.Errorf("failed to run sql maintenance: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", deps.Now().Sub(started))
		return nil
	}
}
