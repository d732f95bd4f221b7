// Package broadcast sends an admin-authored campaign to every non-admin customer.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
)

// Notifier fans a text out to every admin.
type Notifier interface {
	NotifyAll(ctx context.Context, text string, exclude int64) relay.Tally
}

// Deps provides dependencies for the broadcast engine.
type Deps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Messenger messenger.Messenger
	Sessions  *session.Store
	Notifier  Notifier
	Metrics   *metrics.Metrics
	// Pause waits between two sends. Defaults to time.Sleep.
	Pause func(time.Duration)
}

// Result is the tally of one campaign.
type Result struct {
	RunID   uuid.UUID
	Total   int
	Success int
	Failed  int
}

// Engine runs broadcasts.
type Engine struct {
	deps Deps
	log  *slog.Logger
}

// New creates a broadcast engine.
func New(deps Deps) *Engine {
	if deps.Pause == nil {
		deps.Pause = time.Sleep
	}
	return &Engine{deps: deps, log: deps.Logger.With("component", "broadcast")}
}

// Begin asks the operator for the campaign body.
func (e *Engine) Begin(ctx context.Context, actor role.Actor) error {
	if err := actor.Require(role.Admin); err != nil {
		return err
	}
	e.deps.Sessions.Start(actor.ID, session.StatePendingBroadcast)
	e.reply(ctx, actor.ID, e.deps.Config.Messages.BroadcastPrompt, intent.CancelMenu(e.deps.Config.Labels))
	return nil
}

// Pending reports whether userID is expected to send a campaign body.
func (e *Engine) Pending(userID int64) bool {
	sess, ok := e.deps.Sessions.Get(userID)
	return ok && sess.State == session.StatePendingBroadcast
}

// Cancel drops a pending broadcast without side effects.
func (e *Engine) Cancel(ctx context.Context, actor role.Actor) {
	e.deps.Sessions.Delete(actor.ID)
	e.log.InfoContext(ctx, "Broadcast cancelled", "admin_id", actor.ID)
	e.reply(ctx, actor.ID, e.deps.Config.Messages.BroadcastCancelled, intent.AdminMenu(e.deps.Config.Labels))
}

// Submit closes the pending state and runs the campaign with body.
func (e *Engine) Submit(ctx context.Context, actor role.Actor, body string) (Result, error) {
	e.deps.Sessions.Delete(actor.ID)
	return e.Run(ctx, actor, body)
}

// Run sends body to every non-admin customer captured at start, pausing
// between sends. Once started it runs to completion even if ctx is cancelled.
// The tally goes to the operator and to every other admin.
func (e *Engine) Run(ctx context.Context, actor role.Actor, body string) (Result, error) {
	if err := actor.Require(role.Admin); err != nil {
		return Result{}, err
	}
	msgs := e.deps.Config.Messages
	menu := intent.AdminMenu(e.deps.Config.Labels)
	result := Result{RunID: uuid.New()}
	log := e.log.With("run_id", result.RunID.String(), "admin_id", actor.ID)

	recipients, err := e.deps.Store.ListBroadcastRecipients(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list broadcast recipients", "error", err)
		e.reply(ctx, actor.ID, msgs.BroadcastError, menu)
		return result, fmt.Errorf("failed to list broadcast recipients: %w", err)
	}
	result.Total = len(recipients)

	e.reply(ctx, actor.ID, fmt.Sprintf(msgs.BroadcastStartFmt, result.Total), messenger.Keyboard{})
	log.InfoContext(ctx, "Broadcast started", "recipients", result.Total)
	start := time.Now()

	ctx = context.WithoutCancel(ctx)
	campaign := fmt.Sprintf(msgs.CampaignFmt, body)
	for i, id := range recipients {
		if i > 0 {
			e.deps.Pause(e.deps.Config.Broadcast.Interval)
		}
		_, err := e.deps.Messenger.Send(ctx, messenger.Message{To: id, Text: campaign})
		e.deps.Metrics.Delivered(metrics.ChannelBroadcast, err)
		if err != nil {
			result.Failed++
			log.WarnContext(ctx, "Broadcast delivery failed", "target_id", id,
				"kind", messenger.KindOf(err).String(), "error", err)
			continue
		}
		result.Success++
	}

	e.deps.Metrics.BroadcastRun()
	log.InfoContext(ctx, "Broadcast finished", "success", result.Success, "failed", result.Failed,
		"total", result.Total, "duration", time.Since(start))

	report := fmt.Sprintf(msgs.BroadcastReportFmt, result.Success, result.Failed, result.Total)
	e.reply(ctx, actor.ID, report, menu)

	username := actor.Username
	if username == "" {
		username = msgs.NoUsername
	}
	if e.deps.Notifier != nil {
		e.deps.Notifier.NotifyAll(ctx, fmt.Sprintf(msgs.BroadcastNoticeFmt, username, body, report), actor.ID)
	}
	return result, nil
}

func (e *Engine) reply(ctx context.Context, to int64, text string, kb messenger.Keyboard) {
	if _, err := e.deps.Messenger.Send(ctx, messenger.Message{To: to, Text: text, Keyboard: kb}); err != nil {
		e.log.WarnContext(ctx, "Failed to send reply", "user_id", to, "error", err)
	}
}
