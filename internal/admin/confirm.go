package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
)

// ErrStaleSelection is returned for a confirmation choice that no pending prompt expects.
var ErrStaleSelection = errors.New("stale confirmation selection")

// Selection is an inline choice pressed on a confirmation prompt.
type Selection struct {
	Choice intent.Choice
	// ID acknowledges the press.
	ID string
	// Prompt is the message carrying the buttons.
	Prompt messenger.Ref
}

// destructive describes one two-step operation.
type destructive struct {
	name      string
	state     string
	minRole   role.Role
	confirm   string
	cancel    string
	prompt    func(*Service) string
	done      func(*Service) string
	failed    func(*Service) string
	cancelled func(*Service) string
	apply     func(*Service, context.Context, role.Actor) error
}

var (
	clearAdmins = destructive{
		name:      "clear_admins",
		state:     session.StateConfirmClearAdmins,
		minRole:   role.SuperAdmin,
		confirm:   intent.TokenConfirmClearAdmins,
		cancel:    intent.TokenCancelClearAdmins,
		prompt:    func(s *Service) string { return s.deps.Config.Messages.ClearAdminsPrompt },
		done:      func(s *Service) string { return s.deps.Config.Messages.ClearAdminsDone },
		failed:    func(s *Service) string { return s.deps.Config.Messages.ClearAdminsError },
		cancelled: func(s *Service) string { return s.deps.Config.Messages.ClearAdminsCancelled },
		apply:     (*Service).applyClearAdmins,
	}
	clearCustomers = destructive{
		name:      "clear_customers",
		state:     session.StateConfirmClearCustomers,
		minRole:   role.Admin,
		confirm:   intent.TokenConfirmClearCustomers,
		cancel:    intent.TokenCancelClearCustomers,
		prompt:    func(s *Service) string { return s.deps.Config.Messages.ClearCustomersPrompt },
		done:      func(s *Service) string { return s.deps.Config.Messages.ClearCustomersDone },
		failed:    func(s *Service) string { return s.deps.Config.Messages.ClearCustomersError },
		cancelled: func(s *Service) string { return s.deps.Config.Messages.ClearCustomersCancelled },
		apply:     (*Service).applyClearCustomers,
	}
)

func destructiveFor(c intent.Choice) (op destructive, confirmed, ok bool) {
	switch c {
	case intent.ChoiceConfirmClearAdmins:
		return clearAdmins, true, true
	case intent.ChoiceCancelClearAdmins:
		return clearAdmins, false, true
	case intent.ChoiceConfirmClearCustomers:
		return clearCustomers, true, true
	case intent.ChoiceCancelClearCustomers:
		return clearCustomers, false, true
	default:
		return destructive{}, false, false
	}
}

func destructiveForState(state string) (destructive, bool) {
	switch state {
	case clearAdmins.state:
		return clearAdmins, true
	case clearCustomers.state:
		return clearCustomers, true
	default:
		return destructive{}, false
	}
}

// BeginClearAdmins asks the super admin to confirm removing every other admin.
func (s *Service) BeginClearAdmins(ctx context.Context, actor role.Actor) error {
	return s.begin(ctx, actor, clearAdmins)
}

// BeginClearCustomers asks an admin to confirm deleting every customer record.
func (s *Service) BeginClearCustomers(ctx context.Context, actor role.Actor) error {
	return s.begin(ctx, actor, clearCustomers)
}

func (s *Service) begin(ctx context.Context, actor role.Actor, op destructive) error {
	if err := s.require(ctx, actor, op.minRole); err != nil {
		return err
	}
	labels := s.deps.Config.Labels

	sent, ok := s.send(ctx, messenger.Message{
		To:   actor.ID,
		Text: op.prompt(s),
		Keyboard: messenger.InlineKeyboard(
			messenger.Button{Label: labels.ConfirmClear, Choice: op.confirm},
			messenger.Button{Label: labels.CancelClear, Choice: op.cancel},
		),
	})
	if !ok {
		return fmt.Errorf("failed to send %s confirmation", op.name)
	}

	sess := s.deps.Sessions.Start(actor.ID, op.state)
	sess.PromptID = sent.MessageID
	s.deps.Sessions.Save(sess)
	s.log.InfoContext(ctx, "Destructive operation awaiting confirmation", "admin_id", actor.ID, "operation", op.name)
	return nil
}

// PendingConfirm reports whether userID has an unanswered confirmation prompt.
func (s *Service) PendingConfirm(userID int64) bool {
	sess, ok := s.deps.Sessions.Get(userID)
	if !ok {
		return false
	}
	_, pending := destructiveForState(sess.State)
	return pending
}

// Resolve applies or cancels the operation a confirmation choice belongs to.
// The choice must answer the prompt currently pending for the actor.
func (s *Service) Resolve(ctx context.Context, actor role.Actor, sel Selection) error {
	msgs := s.deps.Config.Messages
	op, confirmed, ok := destructiveFor(sel.Choice)
	if !ok {
		return fmt.Errorf("%w: choice %d", ErrStaleSelection, sel.Choice)
	}

	if err := actor.Require(op.minRole); err != nil {
		s.log.WarnContext(ctx, "Confirmation refused", "user_id", actor.ID, "operation", op.name, "role", actor.Role.String())
		s.answer(ctx, sel.ID, msgs.InsufficientRightsAlert, true)
		return err
	}

	sess, ok := s.deps.Sessions.Get(actor.ID)
	if !ok || sess.State != op.state || sess.PromptID != sel.Prompt.MessageID {
		s.answer(ctx, sel.ID, msgs.SelectionExpired, false)
		return fmt.Errorf("%w: %s", ErrStaleSelection, op.name)
	}
	s.deps.Sessions.Delete(actor.ID)

	if !confirmed {
		s.log.InfoContext(ctx, "Destructive operation cancelled", "admin_id", actor.ID, "operation", op.name)
		s.edit(ctx, sel.Prompt, op.cancelled(s))
		s.answer(ctx, sel.ID, "", false)
		return nil
	}

	if err := op.apply(s, ctx, actor); err != nil {
		s.log.ErrorContext(ctx, "Destructive operation failed", "admin_id", actor.ID, "operation", op.name, "error", err)
		s.edit(ctx, sel.Prompt, op.failed(s))
		s.answer(ctx, sel.ID, "", false)
		return err
	}
	s.edit(ctx, sel.Prompt, op.done(s))
	s.answer(ctx, sel.ID, "", false)
	return nil
}

// ImplicitCancel cancels a pending confirmation because the actor sent
// something other than a confirmation choice. It reports whether one was pending.
func (s *Service) ImplicitCancel(ctx context.Context, actor role.Actor) bool {
	sess, ok := s.deps.Sessions.Get(actor.ID)
	if !ok {
		return false
	}
	op, pending := destructiveForState(sess.State)
	if !pending {
		return false
	}
	s.deps.Sessions.Delete(actor.ID)
	s.log.InfoContext(ctx, "Destructive operation implicitly cancelled", "admin_id", actor.ID, "operation", op.name)
	if sess.PromptID != 0 {
		s.edit(ctx, messenger.Ref{ChatID: actor.ID, MessageID: sess.PromptID}, op.cancelled(s))
	}
	return true
}

func (s *Service) applyClearAdmins(ctx context.Context, actor role.Actor) error {
	deleted, err := s.deps.Store.DeleteAdminsExcept(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to delete admins: %w", err)
	}
	if _, err := s.deps.Store.InsertAdmin(ctx, &database.Admin{
		UserID:   actor.ID,
		Username: actor.Username,
		AddedBy:  actor.ID,
	}); err != nil {
		return fmt.Errorf("failed to restore own admin row: %w", err)
	}
	s.log.InfoContext(ctx, "Admins cleared", "admin_id", actor.ID, "deleted", deleted)
	return nil
}

func (s *Service) applyClearCustomers(ctx context.Context, actor role.Actor) error {
	deleted, err := s.deps.Store.DeleteAllCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete customers: %w", err)
	}
	s.log.InfoContext(ctx, "Customers cleared", "admin_id", actor.ID, "deleted", deleted)
	return nil
}

func (s *Service) edit(ctx context.Context, ref messenger.Ref, text string) {
	if err := s.deps.Messenger.Edit(ctx, ref, text); err != nil {
		s.log.WarnContext(ctx, "Failed to edit prompt", "chat_id", ref.ChatID, "error", err)
	}
}

func (s *Service) answer(ctx context.Context, selectionID, text string, alert bool) {
	if selectionID == "" {
		return
	}
	if err := s.deps.Messenger.AnswerSelection(ctx, selectionID, text, alert); err != nil {
		s.log.WarnContext(ctx, "Failed to answer selection", "error", err)
	}
}
