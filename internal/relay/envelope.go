package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/role"
)

// ErrMalformedReference is returned when a replied-to envelope names no customer.
var ErrMalformedReference = errors.New("malformed envelope reference")

// FormatEnvelope wraps a customer's message for delivery to admins.
func (r *Relay) FormatEnvelope(sender role.Actor, body string) string {
	msgs := r.deps.Config.Messages

	fullName := sender.FullName
	if fullName == "" {
		fullName = msgs.NoName
	}
	username := sender.Username
	if username == "" {
		username = msgs.NoUsername
	}
	return fmt.Sprintf(msgs.EnvelopeFmt, fullName, username, sender.ID, body)
}

// ParseEnvelopeID extracts the customer id following marker in an envelope text.
func ParseEnvelopeID(text, marker string) (int64, error) {
	for _, line := range strings.Split(text, "\n") {
		_, rest, ok := strings.Cut(line, marker)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%w: %q is not an id", ErrMalformedReference, strings.TrimSpace(rest))
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: marker %q not found", ErrMalformedReference, marker)
}

// ForwardFromCustomer fans the customer's text out to every admin and
// acknowledges it, whatever the per-admin outcome.
func (r *Relay) ForwardFromCustomer(ctx context.Context, sender role.Actor, text string) Tally {
	msgs := r.deps.Config.Messages
	envelope := r.FormatEnvelope(sender, text)

	tally, err := r.fanOut(ctx, metrics.ChannelRelay, messenger.Message{Text: envelope}, 0, func(adminID int64, sent messenger.Sent) {
		link := &database.Envelope{AdminID: adminID, MessageID: sent.MessageID, CustomerID: sender.ID}
		if err := r.deps.Store.SaveEnvelope(ctx, link); err != nil {
			r.log.WarnContext(ctx, "Failed to save envelope link, replies fall back to text parsing",
				"admin_id", adminID, "customer_id", sender.ID, "error", err)
		}
	})

	if err != nil {
		r.reply(ctx, sender.ID, msgs.CustomerForwardError, messenger.Keyboard{})
		return tally
	}

	r.log.InfoContext(ctx, "Forwarded customer message", "user_id", sender.ID,
		"admins", tally.Total, "delivered", tally.Success)
	r.reply(ctx, sender.ID, msgs.CustomerAck, messenger.Keyboard{})
	return tally
}

// ReplyToEnvelope handles an admin reply to a relayed envelope. It reports
// handled=false when the quoted message is not an envelope. A reply whose
// quoted envelope names no customer returns ErrMalformedReference and sends
// nothing to any customer.
func (r *Relay) ReplyToEnvelope(ctx context.Context, admin role.Actor, ev intent.Event) (handled bool, err error) {
	if ev.ReplyTo == nil {
		return false, nil
	}
	if err := admin.Require(role.Admin); err != nil {
		return false, err
	}
	msgs := r.deps.Config.Messages

	customerID, found, err := r.deps.Store.FindEnvelope(ctx, admin.ID, ev.ReplyTo.MessageID)
	if err != nil {
		r.log.WarnContext(ctx, "Envelope lookup failed, parsing quoted text", "admin_id", admin.ID, "error", err)
	}

	if !found {
		if !strings.Contains(ev.ReplyTo.Text, msgs.EnvelopeHeader) {
			return false, nil
		}
		customerID, err = ParseEnvelopeID(ev.ReplyTo.Text, msgs.EnvelopeIDMarker)
		if err != nil {
			r.log.WarnContext(ctx, "Could not resolve envelope customer", "admin_id", admin.ID, "error", err)
			r.reply(ctx, admin.ID, msgs.ReplyMalformed, messenger.Keyboard{})
			return true, err
		}
	}

	_, sendErr := r.deps.Messenger.Send(ctx, messenger.Message{To: customerID, Text: fmt.Sprintf(msgs.AdminReplyFmt, ev.Text)})
	r.deps.Metrics.Delivered(metrics.ChannelRelay, sendErr)
	if sendErr != nil {
		r.log.WarnContext(ctx, "Failed to deliver admin reply", "admin_id", admin.ID, "target_id", customerID,
			"kind", messenger.KindOf(sendErr).String(), "error", sendErr)
		r.reply(ctx, admin.ID, msgs.ReplyFailed, messenger.Keyboard{})
		return true, sendErr
	}

	r.log.InfoContext(ctx, "Delivered admin reply", "admin_id", admin.ID, "target_id", customerID)
	r.reply(ctx, admin.ID, msgs.ReplyDelivered, messenger.Keyboard{})
	return true, nil
}

// AdminHint explains to an admin how to answer customers.
func (r *Relay) AdminHint(ctx context.Context, adminID int64) {
	r.reply(ctx, adminID, r.deps.Config.Messages.AdminHint, messenger.Keyboard{})
}
