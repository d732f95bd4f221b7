package admin

import (
	"context"
	"fmt"

	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/role"
)

// Debug sends the actor their own role and stored rows. It is open to everyone.
func (s *Service) Debug(ctx context.Context, actor role.Actor) error {
	msgs := s.deps.Config.Messages

	adminRow, err := s.deps.Store.GetAdmin(ctx, actor.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load admin row for debug", "user_id", actor.ID, "error", err)
		s.reply(ctx, actor.ID, msgs.DebugError, messenger.Keyboard{})
		return fmt.Errorf("failed to get admin: %w", err)
	}
	customer, err := s.deps.Store.GetCustomer(ctx, actor.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load customer row for debug", "user_id", actor.ID, "error", err)
		s.reply(ctx, actor.ID, msgs.DebugError, messenger.Keyboard{})
		return fmt.Errorf("failed to get customer: %w", err)
	}

	text := fmt.Sprintf(msgs.DebugFmt, actor.ID,
		s.yesNo(actor.Role.IsAdmin()),
		s.yesNo(actor.Role == role.SuperAdmin),
		s.describeAdmin(adminRow),
		s.describeCustomer(customer))
	s.reply(ctx, actor.ID, text, messenger.Keyboard{})
	return nil
}

func (s *Service) yesNo(v bool) string {
	if v {
		return s.deps.Config.Messages.DebugYes
	}
	return s.deps.Config.Messages.DebugNo
}

func (s *Service) describeAdmin(a *database.Admin) string {
	if a == nil {
		return s.deps.Config.Messages.DebugNo
	}
	return fmt.Sprintf("(%d, %q, %d, %s)", a.UserID, a.Username, a.AddedBy, s.formatTime(a.AddedAt))
}

func (s *Service) describeCustomer(c *database.Customer) string {
	if c == nil {
		return s.deps.Config.Messages.DebugNo
	}
	return fmt.Sprintf("(%d, %q, %q, is_admin=%t, %s)", c.UserID, c.Username, c.FullName, c.IsAdmin, s.formatTime(c.Timestamp))
}
