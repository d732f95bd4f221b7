// Package survey implements the survey conversation: consent gates, three
// free-text questions and three enumerated profile questions, persisted as a
// customer record on completion.
package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/looplab/fsm"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
)

// ErrRejected marks an answer outside the accepted vocabulary of a state.
var ErrRejected = errors.New("answer rejected")

// Notifier fans a text out to every admin.
type Notifier interface {
	NotifyAll(ctx context.Context, text string, exclude int64) relay.Tally
}

// Deps provides dependencies for the survey engine.
type Deps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Messenger messenger.Messenger
	Sessions  *session.Store
	Notifier  Notifier
	Metrics   *metrics.Metrics
}

// Engine drives survey flows. Callers serialise events per identity.
type Engine struct {
	deps Deps
	log  *slog.Logger
}

// New creates a survey engine.
func New(deps Deps) *Engine {
	return &Engine{deps: deps, log: deps.Logger.With("component", "survey")}
}

// Start opens a flow for actor, replacing any session it had. A returning
// customer is asked to confirm a retake instead of the welcome.
func (e *Engine) Start(ctx context.Context, actor role.Actor) error {
	existing, err := e.deps.Store.GetCustomer(ctx, actor.ID)
	if err != nil {
		e.deps.Sessions.Delete(actor.ID)
		e.log.ErrorContext(ctx, "Failed to look up customer for survey", "user_id", actor.ID, "error", err)
		e.send(ctx, actor.ID, e.deps.Config.Messages.GeneralError, messenger.Keyboard{})
		return fmt.Errorf("failed to look up customer: %w", err)
	}

	state := StateAwaitingConsent
	username, fullName := actor.Username, actor.FullName
	if existing != nil {
		state = StateAwaitingRetake
		if username == "" {
			username = existing.Username
		}
		if fullName == "" {
			fullName = existing.FullName
		}
	}
	admin := actor.Role.IsAdmin()

	sess := e.deps.Sessions.Start(actor.ID, state)
	sess.Fields[FieldUsername] = username
	sess.Fields[FieldFullName] = fullName
	sess.Fields[FieldIsAdmin] = strconv.FormatBool(admin)
	e.deps.Sessions.Save(sess)

	e.deps.Metrics.SurveyStarted()
	e.log.InfoContext(ctx, "Survey started", "user_id", actor.ID, "flow_id", sess.FlowID, "retake", existing != nil)

	text, kb := e.prompt(state, admin)
	e.send(ctx, actor.ID, text, kb)
	return nil
}

// Active reports whether userID is in the middle of a survey.
func (e *Engine) Active(userID int64) bool {
	sess, ok := e.deps.Sessions.Get(userID)
	return ok && Owns(sess.State)
}

// Handle feeds text to the flow of actor. It returns false when actor has no
// survey in progress.
func (e *Engine) Handle(ctx context.Context, actor role.Actor, text string) bool {
	sess, ok := e.deps.Sessions.Get(actor.ID)
	if !ok || !Owns(sess.State) {
		return false
	}
	text = strings.TrimSpace(text)

	event := eventAccept
	if steps[sess.State].gate && strings.EqualFold(text, e.deps.Config.Survey.No) {
		event = eventDecline
	}

	machine := e.newMachine(&sess)
	err := machine.Event(ctx, event, text)

	var canceled fsm.CanceledError
	switch {
	case errors.As(err, &canceled) && errors.Is(canceled.Err, ErrRejected):
		e.reject(ctx, sess)
		return true
	case err != nil:
		e.log.ErrorContext(ctx, "Survey transition failed", "user_id", actor.ID, "flow_id", sess.FlowID,
			"state", sess.State, "error", err)
		e.send(ctx, actor.ID, e.deps.Config.Messages.StepError, messenger.Keyboard{})
		return true
	}

	switch next := machine.Current(); next {
	case stateDeclined:
		e.deps.Sessions.Delete(actor.ID)
		e.deps.Metrics.SurveyDeclined()
		e.log.InfoContext(ctx, "Survey declined", "user_id", actor.ID, "flow_id", sess.FlowID, "state", sess.State)
		e.send(ctx, actor.ID, e.deps.Config.Messages.Declined, messenger.RemoveKeyboard())
	case stateCompleted:
		e.complete(ctx, sess)
	default:
		sess.State = next
		e.deps.Sessions.Save(sess)
		prompt, kb := e.prompt(next, isAdmin(sess))
		e.send(ctx, actor.ID, prompt, kb)
	}
	return true
}

// newMachine builds the state machine positioned at the session state. An
// accepted answer is written to sess.Fields before the transition completes.
func (e *Engine) newMachine(sess *session.Session) *fsm.FSM {
	return fsm.NewFSM(sess.State, events, fsm.Callbacks{
		"before_" + eventAccept: func(_ context.Context, ev *fsm.Event) {
			answer, _ := ev.Args[0].(string)
			if err := e.validate(ev.Src, answer); err != nil {
				ev.Cancel(err)
				return
			}
			if field := steps[ev.Src].field; field != "" {
				sess.Fields[field] = answer
			}
		},
		"enter_state": func(ctx context.Context, ev *fsm.Event) {
			e.log.DebugContext(ctx, "Survey transition", "user_id", sess.UserID, "flow_id", sess.FlowID,
				"event", ev.Event, "from", ev.Src, "to", ev.Dst)
		},
	})
}

func (e *Engine) validate(state, answer string) error {
	st := steps[state]
	sc := e.deps.Config.Survey

	switch {
	case st.gate:
		return nil
	case st.options != nil:
		if !slices.Contains(st.options(sc), answer) {
			return fmt.Errorf("%w: %q is not an option", ErrRejected, answer)
		}
	case answer == "":
		return fmt.Errorf("%w: empty answer", ErrRejected)
	}
	return nil
}

// reject re-prompts the current state. The session keeps its state and fields.
func (e *Engine) reject(ctx context.Context, sess session.Session) {
	e.deps.Sessions.Save(sess)
	e.deps.Metrics.SurveyRejected(sess.State)

	prompt, kb := e.prompt(sess.State, isAdmin(sess))
	notice := prompt
	if rejected := steps[sess.State].rejected; rejected != nil {
		notice = rejected(e.deps.Config.Messages)
	}
	e.log.DebugContext(ctx, "Survey answer rejected", "user_id", sess.UserID, "flow_id", sess.FlowID, "state", sess.State)
	e.send(ctx, sess.UserID, notice, kb)
}

// complete persists the record, notifies admins about non-admin submitters
// and sends the closing message. The session is gone whatever the outcome.
func (e *Engine) complete(ctx context.Context, sess session.Session) {
	msgs := e.deps.Config.Messages
	f := sess.Fields
	admin := isAdmin(sess)

	customer := &database.Customer{
		UserID:     sess.UserID,
		Username:   f[FieldUsername],
		FullName:   f[FieldFullName],
		Appreciate: f[FieldAppreciate],
		Dislike:    f[FieldDislike],
		Improve:    f[FieldImprove],
		Gender:     f[FieldGender],
		AgeGroup:   f[FieldAgeGroup],
		VisitFreq:  f[FieldVisitFreq],
		IsAdmin:    admin,
	}

	e.deps.Sessions.Delete(sess.UserID)

	if err := e.deps.Store.UpsertCustomer(ctx, customer); err != nil {
		e.log.ErrorContext(ctx, "Failed to save survey", "user_id", sess.UserID, "flow_id", sess.FlowID, "error", err)
		e.send(ctx, sess.UserID, msgs.GeneralError, messenger.RemoveKeyboard())
		return
	}

	e.deps.Metrics.SurveyCompleted()
	e.log.InfoContext(ctx, "Survey completed", "user_id", sess.UserID, "flow_id", sess.FlowID, "is_admin", admin)

	if !admin && e.deps.Notifier != nil {
		tally := e.deps.Notifier.NotifyAll(ctx, e.notification(customer), 0)
		e.log.DebugContext(ctx, "Admins notified of survey", "user_id", sess.UserID, "delivered", tally.Success, "failed", tally.Failed)
	}

	closing := msgs.Closing
	if admin {
		closing += msgs.ClosingAdminSuffix
	}
	e.send(ctx, sess.UserID, closing, messenger.RemoveKeyboard())
}

func (e *Engine) notification(c *database.Customer) string {
	msgs := e.deps.Config.Messages
	username := c.Username
	if username == "" {
		username = msgs.NoUsername
	}
	fullName := c.FullName
	if fullName == "" {
		fullName = msgs.NoName
	}
	return fmt.Sprintf(msgs.SurveyNotificationFmt, username, fullName, c.UserID,
		c.Appreciate, c.Dislike, c.Improve, c.Gender, c.AgeGroup, c.VisitFreq)
}

func (e *Engine) send(ctx context.Context, to int64, text string, kb messenger.Keyboard) {
	if _, err := e.deps.Messenger.Send(ctx, messenger.Message{To: to, Text: text, Keyboard: kb}); err != nil {
		e.log.WarnContext(ctx, "Failed to send survey message", "user_id", to, "error", err)
	}
}

func isAdmin(sess session.Session) bool {
	admin, _ := strconv.ParseBool(sess.Fields[FieldIsAdmin])
	return admin
}
