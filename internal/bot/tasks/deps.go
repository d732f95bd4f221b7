// Package tasks implements the scheduled maintenance tasks of the survey bot.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/session"
)

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Sessions *session.Store
	Config   *config.Config
	// Now defaults to time.Now.
	Now func() time.Time
}
