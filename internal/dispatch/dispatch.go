// Package dispatch is the single entry point for inbound events. It
// classifies the sender once, parses the event into an intent and routes it
// by intent and session state.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/edgard/dymbot/internal/admin"
	"github.com/edgard/dymbot/internal/broadcast"
	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
	"github.com/edgard/dymbot/internal/survey"
)

// Classifier resolves the role of a sender.
type Classifier interface {
	Classify(ctx context.Context, userID int64) role.Role
}

// Deps provides dependencies for the dispatcher.
type Deps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Sessions   *session.Store
	Classifier Classifier
	Messenger  messenger.Messenger
	Metrics    *metrics.Metrics

	Survey    *survey.Engine
	Relay     *relay.Relay
	Broadcast *broadcast.Engine
	Admin     *admin.Service
}

// Dispatcher routes events to the engines.
type Dispatcher struct {
	deps   Deps
	parser *intent.Parser
	log    *slog.Logger
}

// New creates a dispatcher.
func New(deps Deps) *Dispatcher {
	return &Dispatcher{
		deps:   deps,
		parser: intent.NewParser(deps.Config.Labels),
		log:    deps.Logger.With("component", "dispatch"),
	}
}

// Handle processes one event. Events of the same sender are handled one at a
// time; failures are logged and answered by the engines, never returned.
func (d *Dispatcher) Handle(ctx context.Context, ev intent.Event) {
	unlock := d.deps.Sessions.Lock(ev.SenderID)
	defer unlock()

	actor := role.Actor{
		ID:       ev.SenderID,
		Username: ev.Username,
		FullName: ev.FullName,
		Role:     d.deps.Classifier.Classify(ctx, ev.SenderID),
	}
	it := d.parser.Parse(ev)
	d.deps.Metrics.Event(actor.Role.String(), kindLabel(it.Kind))

	if it.Kind == intent.Selection {
		d.selection(ctx, actor, ev, it)
		return
	}

	// Anything but a confirmation choice cancels a pending destructive operation.
	if d.deps.Admin.ImplicitCancel(ctx, actor) {
		d.log.InfoContext(ctx, "Pending confirmation dropped by new input", "user_id", actor.ID)
	}

	if it.Kind == intent.Command {
		d.command(ctx, actor, ev, it)
		return
	}
	if !ev.Private {
		d.log.DebugContext(ctx, "Ignoring message outside private chat", "user_id", actor.ID, "chat_id", ev.ChatID)
		return
	}
	if it.Kind == intent.MenuChoice && actor.Role.IsAdmin() {
		d.menu(ctx, actor, it)
		return
	}
	if d.deps.Survey.Active(actor.ID) {
		d.deps.Survey.Handle(ctx, actor, ev.Text)
		return
	}
	if actor.Role.IsAdmin() {
		d.adminText(ctx, actor, ev, it)
		return
	}
	d.customerText(ctx, actor, it)
}

func (d *Dispatcher) command(ctx context.Context, actor role.Actor, ev intent.Event, it intent.Intent) {
	switch it.Command {
	case intent.CmdStart:
		if !ev.Private {
			return
		}
		d.done(ctx, actor, "start_survey", d.deps.Survey.Start(ctx, actor))
	case intent.CmdAdmin:
		d.done(ctx, actor, "open_admin", d.deps.Admin.Open(ctx, actor, ev.Private))
	case intent.CmdDebug:
		d.done(ctx, actor, "debug", d.deps.Admin.Debug(ctx, actor))
	}
}

func (d *Dispatcher) menu(ctx context.Context, actor role.Actor, it intent.Intent) {
	switch it.Action {
	case intent.ActionCancel:
		if d.deps.Broadcast.Pending(actor.ID) {
			d.deps.Broadcast.Cancel(ctx, actor)
			return
		}
		d.deps.Admin.Cancel(ctx, actor)
		return
	case intent.ActionEndChat:
		d.deps.Relay.EndChat(ctx, actor)
		return
	}

	// Any other panel action leaves a pinned chat first.
	if d.deps.Relay.Chatting(actor.ID) {
		d.deps.Relay.EndChat(ctx, actor)
	}

	var err error
	switch it.Action {
	case intent.ActionReport:
		err = d.deps.Admin.Report(ctx, actor)
	case intent.ActionListAdmins:
		err = d.deps.Admin.ListAdmins(ctx, actor)
	case intent.ActionAddAdmin:
		err = d.deps.Admin.BeginAddAdmin(ctx, actor)
	case intent.ActionClearAdmins:
		err = d.deps.Admin.BeginClearAdmins(ctx, actor)
	case intent.ActionClearCustomers:
		err = d.deps.Admin.BeginClearCustomers(ctx, actor)
	case intent.ActionBroadcast:
		err = d.deps.Broadcast.Begin(ctx, actor)
	case intent.ActionChat:
		err = d.deps.Relay.StartChatSelection(ctx, actor)
	case intent.ActionDetailedReport:
		err = d.deps.Admin.DetailedReport(ctx, actor)
	case intent.ActionDigest:
		err = d.deps.Admin.Digest(ctx, actor)
	case intent.ActionBack:
		err = d.deps.Admin.Back(ctx, actor)
	}
	d.done(ctx, actor, "menu", err)
}

func (d *Dispatcher) adminText(ctx context.Context, actor role.Actor, ev intent.Event, it intent.Intent) {
	switch {
	case d.deps.Broadcast.Pending(actor.ID):
		_, err := d.deps.Broadcast.Submit(ctx, actor, ev.Text)
		d.done(ctx, actor, "broadcast", err)
		return
	case d.deps.Admin.PendingAddAdmin(actor.ID):
		d.done(ctx, actor, "add_admin", d.deps.Admin.SubmitAddAdmin(ctx, actor, it.Text))
		return
	}

	// A reply to an envelope goes to that envelope's customer, even in a pinned chat.
	if ev.ReplyTo != nil {
		handled, err := d.deps.Relay.ReplyToEnvelope(ctx, actor, ev)
		if handled {
			d.done(ctx, actor, "reply_to_envelope", err)
			return
		}
	}
	if d.deps.Relay.Chatting(actor.ID) {
		d.deps.Relay.ForwardToPinned(ctx, actor, ev.Text)
		return
	}
	d.deps.Relay.AdminHint(ctx, actor.ID)
}

func (d *Dispatcher) customerText(ctx context.Context, actor role.Actor, it intent.Intent) {
	if actor.Role == role.Unknown {
		d.log.DebugContext(ctx, "Ignoring text from unknown sender", "user_id", actor.ID)
		return
	}
	if it.Text == "" || strings.HasPrefix(it.Text, "/") {
		return
	}
	d.deps.Relay.ForwardFromCustomer(ctx, actor, it.Text)
}

func (d *Dispatcher) selection(ctx context.Context, actor role.Actor, ev intent.Event, it intent.Intent) {
	msgs := d.deps.Config.Messages
	prompt := messenger.Ref{ChatID: ev.ChatID, MessageID: ev.Origin}

	switch it.Choice {
	case intent.ChoiceConfirmClearAdmins, intent.ChoiceCancelClearAdmins,
		intent.ChoiceConfirmClearCustomers, intent.ChoiceCancelClearCustomers:
		err := d.deps.Admin.Resolve(ctx, actor, admin.Selection{Choice: it.Choice, ID: ev.SelectionID, Prompt: prompt})
		d.done(ctx, actor, "resolve_confirmation", err)
		return
	case intent.ChoicePickCustomer:
		err := d.deps.Relay.PickCustomer(ctx, actor, it.Target)
		d.answer(ctx, ev.SelectionID, err)
		d.done(ctx, actor, "pick_customer", err)
		return
	case intent.ChoiceCancelPick:
		err := d.deps.Relay.CancelSelection(ctx, actor, prompt)
		d.answer(ctx, ev.SelectionID, err)
		d.done(ctx, actor, "cancel_chat_selection", err)
		return
	}

	d.log.WarnContext(ctx, "Unknown selection", "user_id", actor.ID, "data", it.Text)
	if err := d.deps.Messenger.AnswerSelection(ctx, ev.SelectionID, msgs.SelectionExpired, false); err != nil {
		d.log.WarnContext(ctx, "Failed to answer selection", "user_id", actor.ID, "error", err)
	}
}

// answer acknowledges a relay selection, with a notice when it was refused.
func (d *Dispatcher) answer(ctx context.Context, selectionID string, err error) {
	if selectionID == "" {
		return
	}
	msgs := d.deps.Config.Messages
	var text string
	alert := false
	switch {
	case errors.Is(err, role.ErrPrivilegeDenied):
		text, alert = msgs.InsufficientRightsAlert, true
	case err != nil:
		text = msgs.SelectionExpired
	}
	if aerr := d.deps.Messenger.AnswerSelection(ctx, selectionID, text, alert); aerr != nil {
		d.log.WarnContext(ctx, "Failed to answer selection", "error", aerr)
	}
}

// done logs the outcome of a routed operation. Refusals are expected and
// logged below warning level.
func (d *Dispatcher) done(ctx context.Context, actor role.Actor, op string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, role.ErrPrivilegeDenied),
		errors.Is(err, admin.ErrInvalidID),
		errors.Is(err, admin.ErrAlreadyAdmin),
		errors.Is(err, admin.ErrStaleSelection),
		errors.Is(err, relay.ErrNoPendingSelection):
		d.log.InfoContext(ctx, "Operation refused", "user_id", actor.ID, "operation", op, "reason", err.Error())
	default:
		d.log.WarnContext(ctx, "Operation failed", "user_id", actor.ID, "operation", op, "error", err)
	}
}

func kindLabel(k intent.Kind) string {
	switch k {
	case intent.Command:
		return "command"
	case intent.MenuChoice:
		return "menu"
	case intent.Selection:
		return "selection"
	default:
		return "text"
	}
}
