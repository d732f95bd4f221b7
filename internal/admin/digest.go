package admin

import (
	"context"
	"fmt"

	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/role"
)

// Digest summarises the feedback of the most recent customers.
func (s *Service) Digest(ctx context.Context, actor role.Actor) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	msgs := s.deps.Config.Messages
	cfg := s.deps.Config.Gemini

	if s.deps.Digester == nil {
		s.reply(ctx, actor.ID, msgs.DigestDisabled, messenger.Keyboard{})
		return nil
	}

	customers, err := s.deps.Store.ListRecentCustomers(ctx, cfg.SampleSize)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list customers for digest", "admin_id", actor.ID, "error", err)
		s.reply(ctx, actor.ID, msgs.DigestError, messenger.Keyboard{})
		return fmt.Errorf("failed to list customers: %w", err)
	}

	feedback := make([]database.Customer, 0, len(customers))
	for _, c := range customers {
		if c.Appreciate != "" || c.Dislike != "" || c.Improve != "" {
			feedback = append(feedback, c)
		}
	}
	if len(feedback) == 0 {
		s.reply(ctx, actor.ID, msgs.DigestEmpty, messenger.Keyboard{})
		return nil
	}

	s.reply(ctx, actor.ID, fmt.Sprintf(msgs.DigestWorkingFmt, len(feedback)), messenger.Keyboard{})

	digestCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		digestCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	text, err := s.deps.Digester.Digest(digestCtx, feedback)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to generate digest", "admin_id", actor.ID, "customers", len(feedback), "error", err)
		s.reply(ctx, actor.ID, msgs.DigestError, messenger.Keyboard{})
		return fmt.Errorf("failed to generate digest: %w", err)
	}

	s.log.InfoContext(ctx, "Digest generated", "admin_id", actor.ID, "customers", len(feedback))
	s.sendChunks(ctx, actor.ID, fmt.Sprintf(msgs.DigestFmt, len(feedback), text), nil, "")
	return nil
}
