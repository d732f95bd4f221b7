package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
)

// Add-admin outcomes other than success.
var (
	ErrInvalidID      = errors.New("invalid user id")
	ErrAlreadyAdmin   = errors.New("user is already an admin")
	ErrNoPendingInput = errors.New("no pending add-admin input")
)

// BeginAddAdmin asks the operator for the id of the new admin.
func (s *Service) BeginAddAdmin(ctx context.Context, actor role.Actor) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	s.deps.Sessions.Start(actor.ID, session.StatePendingAddAdmin)
	s.reply(ctx, actor.ID, s.deps.Config.Messages.AddAdminPrompt, intent.CancelMenu(s.deps.Config.Labels))
	return nil
}

// PendingAddAdmin reports whether userID is expected to send an admin id.
func (s *Service) PendingAddAdmin(userID int64) bool {
	sess, ok := s.deps.Sessions.Get(userID)
	return ok && sess.State == session.StatePendingAddAdmin
}

// SubmitAddAdmin promotes the user whose id is text. An unparseable id keeps
// the prompt open; every other outcome ends the flow.
func (s *Service) SubmitAddAdmin(ctx context.Context, actor role.Actor, text string) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	if !s.PendingAddAdmin(actor.ID) {
		return ErrNoPendingInput
	}
	msgs := s.deps.Config.Messages

	newID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || newID <= 0 {
		s.reply(ctx, actor.ID, msgs.AddAdminInvalidID, intent.CancelMenu(s.deps.Config.Labels))
		return fmt.Errorf("%w: %q", ErrInvalidID, text)
	}
	s.deps.Sessions.Delete(actor.ID)

	exists, err := s.deps.Store.IsAdmin(ctx, newID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to check admin", "admin_id", actor.ID, "target_id", newID, "error", err)
		s.reply(ctx, actor.ID, msgs.AddAdminError, s.menu())
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if exists || newID == s.deps.Config.Telegram.SuperAdminID {
		s.reply(ctx, actor.ID, msgs.AddAdminDuplicate, s.menu())
		return ErrAlreadyAdmin
	}

	profile, profileErr := s.deps.Messenger.FetchProfile(ctx, newID)
	if profileErr != nil {
		s.log.WarnContext(ctx, "Failed to fetch new admin profile", "target_id", newID, "error", profileErr)
	}

	inserted, err := s.deps.Store.InsertAdmin(ctx, &database.Admin{
		UserID:   newID,
		Username: profile.Username,
		AddedBy:  actor.ID,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to insert admin", "admin_id", actor.ID, "target_id", newID, "error", err)
		s.reply(ctx, actor.ID, msgs.AddAdminError, s.menu())
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	if !inserted {
		s.reply(ctx, actor.ID, msgs.AddAdminDuplicate, s.menu())
		return ErrAlreadyAdmin
	}
	s.log.InfoContext(ctx, "Admin added", "admin_id", actor.ID, "target_id", newID)

	if _, err := s.deps.Messenger.Send(ctx, messenger.Message{To: newID, Text: msgs.AdminOnboarding}); err != nil {
		s.log.WarnContext(ctx, "Failed to send onboarding to new admin", "target_id", newID,
			"kind", messenger.KindOf(err).String(), "error", err)
	}

	username, fullName := s.profileNames(profile, profileErr != nil)
	if s.deps.Notifier != nil {
		notice := fmt.Sprintf(msgs.NewAdminNoticeFmt, newID, fullName, username, s.username(actor.Username), actor.ID)
		s.deps.Notifier.NotifyAll(ctx, notice, actor.ID)
	}

	s.reply(ctx, actor.ID, fmt.Sprintf(msgs.AddAdminDoneFmt, username), s.menu())
	return nil
}

// profileNames returns display names for a fetched profile.
func (s *Service) profileNames(p messenger.Profile, failed bool) (username, fullName string) {
	msgs := s.deps.Config.Messages
	if failed {
		return msgs.Unknown, msgs.Unknown
	}
	username, fullName = p.Username, p.FullName
	if username == "" {
		username = msgs.NoUsername
	}
	if fullName == "" {
		fullName = msgs.NoName
	}
	return username, fullName
}

func (s *Service) username(u string) string {
	if u == "" {
		return s.deps.Config.Messages.NoUsername
	}
	return u
}

// ListAdmins sends the admin roster.
func (s *Service) ListAdmins(ctx context.Context, actor role.Actor) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	msgs := s.deps.Config.Messages

	admins, err := s.deps.Store.ListAdmins(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list admins", "admin_id", actor.ID, "error", err)
		s.reply(ctx, actor.ID, msgs.ReportError, messenger.Keyboard{})
		return fmt.Errorf("failed to list admins: %w", err)
	}
	if len(admins) == 0 {
		s.reply(ctx, actor.ID, msgs.NoAdmins, messenger.Keyboard{})
		return nil
	}

	entries := make([]string, 0, len(admins))
	for _, a := range admins {
		addedBy := a.AddedByUsername
		if addedBy == "" {
			addedBy = msgs.Unknown
		}
		entries = append(entries, fmt.Sprintf(msgs.AdminEntryFmt, a.UserID, s.username(a.Username), addedBy, s.formatTime(a.AddedAt)))
	}
	s.sendChunks(ctx, actor.ID, msgs.AdminsHeader, entries, "")
	return nil
}
