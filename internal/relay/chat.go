package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
)

// ErrNoPendingSelection is returned when a chat selection arrives without an open prompt.
var ErrNoPendingSelection = errors.New("no pending chat selection")

// StartChatSelection offers the most recently active customers as inline choices.
func (r *Relay) StartChatSelection(ctx context.Context, admin role.Actor) error {
	if err := admin.Require(role.Admin); err != nil {
		return err
	}
	msgs := r.deps.Config.Messages
	labels := r.deps.Config.Labels

	customers, err := r.deps.Store.ListRecentCustomers(ctx, r.deps.Config.Relay.RecentCustomersLimit)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to list customers for chat", "admin_id", admin.ID, "error", err)
		r.reply(ctx, admin.ID, msgs.GeneralError, intent.AdminMenu(labels))
		return fmt.Errorf("failed to list recent customers: %w", err)
	}
	if len(customers) == 0 {
		r.reply(ctx, admin.ID, msgs.NoCustomersForChat, intent.AdminMenu(labels))
		return nil
	}

	buttons := make([]messenger.Button, 0, len(customers)+1)
	for _, c := range customers {
		name := c.FullName
		if name == "" {
			name = msgs.NoName
		}
		buttons = append(buttons, messenger.Button{
			Label:  fmt.Sprintf(labels.CustomerFmt, name, c.UserID),
			Choice: intent.PickCustomerToken(c.UserID),
		})
	}
	buttons = append(buttons, messenger.Button{Label: labels.Cancel, Choice: intent.TokenCancelPick})

	sent, err := r.deps.Messenger.Send(ctx, messenger.Message{
		To:       admin.ID,
		Text:     msgs.ChooseCustomer,
		Keyboard: messenger.InlineKeyboard(buttons...),
	})
	if err != nil {
		r.log.WarnContext(ctx, "Failed to send chat selection", "admin_id", admin.ID, "error", err)
		return fmt.Errorf("failed to send chat selection: %w", err)
	}

	sess := r.deps.Sessions.Start(admin.ID, session.StateSelectingCustomer)
	sess.PromptID = sent.MessageID
	r.deps.Sessions.Save(sess)

	r.log.InfoContext(ctx, "Chat selection offered", "admin_id", admin.ID, "customers", len(customers))
	return nil
}

// PickCustomer pins customerID into the admin's session.
func (r *Relay) PickCustomer(ctx context.Context, admin role.Actor, customerID int64) error {
	if err := admin.Require(role.Admin); err != nil {
		return err
	}
	sess, ok := r.deps.Sessions.Get(admin.ID)
	if !ok || sess.State != session.StateSelectingCustomer {
		return ErrNoPendingSelection
	}

	sess.State = session.StateChatting
	sess.PinnedID = customerID
	sess.PromptID = 0
	r.deps.Sessions.Save(sess)

	r.log.InfoContext(ctx, "Chat pinned", "admin_id", admin.ID, "target_id", customerID, "flow_id", sess.FlowID)
	r.reply(ctx, admin.ID, fmt.Sprintf(r.deps.Config.Messages.ChatStartedFmt, customerID), intent.EndChatMenu(r.deps.Config.Labels))
	return nil
}

// CancelSelection aborts the chat selection without pinning. ref is the
// prompt carrying the inline choices.
func (r *Relay) CancelSelection(ctx context.Context, admin role.Actor, ref messenger.Ref) error {
	sess, ok := r.deps.Sessions.Get(admin.ID)
	if !ok || sess.State != session.StateSelectingCustomer {
		return ErrNoPendingSelection
	}
	r.deps.Sessions.Delete(admin.ID)

	if err := r.deps.Messenger.Edit(ctx, ref, r.deps.Config.Messages.ChatSelectCancelled); err != nil {
		r.log.WarnContext(ctx, "Failed to edit chat selection", "admin_id", admin.ID, "error", err)
	}
	return nil
}

// ForwardToPinned unicasts text to the customer pinned in the admin's session.
// It reports false when the admin has no pinned chat.
func (r *Relay) ForwardToPinned(ctx context.Context, admin role.Actor, text string) bool {
	sess, ok := r.deps.Sessions.Get(admin.ID)
	if !ok || sess.State != session.StateChatting || sess.PinnedID == 0 {
		return false
	}
	msgs := r.deps.Config.Messages
	// Refresh the idle timer.
	r.deps.Sessions.Save(sess)

	_, err := r.deps.Messenger.Send(ctx, messenger.Message{To: sess.PinnedID, Text: fmt.Sprintf(msgs.AdminMessageFmt, text)})
	r.deps.Metrics.Delivered(metrics.ChannelRelay, err)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to deliver pinned chat message", "admin_id", admin.ID,
			"target_id", sess.PinnedID, "kind", messenger.KindOf(err).String(), "error", err)
		r.reply(ctx, admin.ID, msgs.ChatFailed, messenger.Keyboard{})
		return true
	}
	r.reply(ctx, admin.ID, msgs.ChatDelivered, messenger.Keyboard{})
	return true
}

// EndChat clears the pin and returns the admin to the panel.
func (r *Relay) EndChat(ctx context.Context, admin role.Actor) {
	if sess, ok := r.deps.Sessions.Get(admin.ID); ok {
		r.log.InfoContext(ctx, "Chat ended", "admin_id", admin.ID, "target_id", sess.PinnedID, "flow_id", sess.FlowID)
	}
	r.deps.Sessions.Delete(admin.ID)
	r.reply(ctx, admin.ID, r.deps.Config.Messages.ChatEnded, intent.AdminMenu(r.deps.Config.Labels))
}

// Chatting reports whether the admin has a pinned chat.
func (r *Relay) Chatting(adminID int64) bool {
	sess, ok := r.deps.Sessions.Get(adminID)
	return ok && sess.State == session.StateChatting
}
