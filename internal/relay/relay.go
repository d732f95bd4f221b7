// Package relay moves free text between customers and admins: customer
// envelopes fanned out to every admin, admin replies resolved back to the
// customer, pinned chats, and the notify-all primitive.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/session"
)

// Deps provides dependencies for the relay.
type Deps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Messenger messenger.Messenger
	Sessions  *session.Store
	Metrics   *metrics.Metrics
}

// Tally counts the outcome of a fan-out.
type Tally struct {
	Total   int
	Success int
	Failed  int
}

// Relay routes messages between customers and admins.
type Relay struct {
	deps Deps
	log  *slog.Logger
}

// New creates a relay.
func New(deps Deps) *Relay {
	return &Relay{deps: deps, log: deps.Logger.With("component", "relay")}
}

// NotifyAll sends text to every admin except exclude (0 excludes nobody).
// A failed send is logged and counted; it never stops the iteration.
func (r *Relay) NotifyAll(ctx context.Context, text string, exclude int64) Tally {
	tally, _ := r.fanOut(ctx, metrics.ChannelNotify, messenger.Message{Text: text}, exclude, nil)
	return tally
}

// fanOut sends msg to every admin except exclude and calls onSent for each delivery.
func (r *Relay) fanOut(ctx context.Context, channel string, msg messenger.Message, exclude int64, onSent func(adminID int64, sent messenger.Sent)) (Tally, error) {
	var tally Tally

	admins, err := r.deps.Store.ListAdmins(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to list admins for fan-out", "channel", channel, "error", err)
		return tally, fmt.Errorf("failed to list admins: %w", err)
	}

	for _, admin := range admins {
		if exclude != 0 && admin.UserID == exclude {
			continue
		}
		tally.Total++

		msg.To = admin.UserID
		sent, err := r.deps.Messenger.Send(ctx, msg)
		r.deps.Metrics.Delivered(channel, err)
		if err != nil {
			tally.Failed++
			r.log.WarnContext(ctx, "Failed to deliver to admin",
				"admin_id", admin.UserID, "kind", messenger.KindOf(err).String(), "error", err)
			continue
		}
		tally.Success++
		if onSent != nil {
			onSent(admin.UserID, sent)
		}
	}

	r.log.DebugContext(ctx, "Fan-out finished", "channel", channel,
		"total", tally.Total, "success", tally.Success, "failed", tally.Failed)
	return tally, nil
}

// reply sends text to the user and logs a failure.
func (r *Relay) reply(ctx context.Context, to int64, text string, kb messenger.Keyboard) {
	if _, err := r.deps.Messenger.Send(ctx, messenger.Message{To: to, Text: text, Keyboard: kb}); err != nil {
		r.log.WarnContext(ctx, "Failed to send reply", "user_id", to, "error", err)
	}
}
