package tasks

import (
	"context"
	"fmt"
)

// newEnvelopePruneTask creates the task that forgets envelope links older
// than the configured retention. Replies to pruned envelopes fall back to the
// id marker in the quoted text.
func newEnvelopePruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "envelope_prune")

	return func(ctx context.Context) error {
		cutoff := deps.Now().Add(-deps.Config.Relay.EnvelopeRetention)

		deleted, err := deps.Store.DeleteEnvelopesBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Envelope prune failed", "cutoff", cutoff, "error", err)
			return fmt.Errorf("failed to prune envelopes: %w", err)
		}

		log.InfoContext(ctx, "Envelope links pruned", "deleted", deleted, "cutoff", cutoff)
		return nil
	}
}
