package survey

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/logger"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
	"github.com/edgard/dymbot/internal/testutil"
)

type fixture struct {
	engine   *Engine
	store    *testutil.FakeStore
	msgr     *testutil.FakeMessenger
	sessions *session.Store
	metrics  *metrics.Metrics
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    testutil.NewFakeStore(),
		msgr:     testutil.NewFakeMessenger(),
		sessions: session.NewStore(0),
		metrics:  metrics.New(),
		cfg:      config.Default(),
	}
	f.store.AddAdmin(1, "boss")
	f.store.AddAdmin(2, "deputy")

	log := logger.Discard()
	notifier := relay.New(relay.Deps{
		Logger:    log,
		Config:    f.cfg,
		Store:     f.store,
		Messenger: f.msgr,
		Sessions:  f.sessions,
		Metrics:   f.metrics,
	})
	f.engine = New(Deps{
		Logger:    log,
		Config:    f.cfg,
		Store:     f.store,
		Messenger: f.msgr,
		Sessions:  f.sessions,
		Notifier:  notifier,
		Metrics:   f.metrics,
	})
	return f
}

func (f *fixture) state(t *testing.T, id int64) string {
	t.Helper()
	sess, ok := f.sessions.Get(id)
	require.True(t, ok)
	return sess.State
}

func (f *fixture) lastText(t *testing.T, id int64) string {
	t.Helper()
	msg, ok := f.msgr.Last(id)
	require.True(t, ok)
	return msg.Text
}

var visitor = role.Actor{ID: 100, Username: "visitor", FullName: "Anna K", Role: role.Unknown}

func TestConcreteSurveyScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	msgs := f.cfg.Messages

	require.NoError(t, f.engine.Start(ctx, visitor))
	require.Equal(t, StateAwaitingConsent, f.state(t, 100))
	require.Equal(t, msgs.Welcome, f.lastText(t, 100))

	steps := []struct {
		input      string
		wantState  string
		wantPrompt string
	}{
		{input: "Да", wantState: StateAwaitingHelp, wantPrompt: msgs.HelpPrompt},
		{input: "Да", wantState: StateAppreciate, wantPrompt: msgs.AppreciatePrompt},
		{input: "чисто, вкусно", wantState: StateDislike, wantPrompt: msgs.DislikePrompt},
		{input: "очереди", wantState: StateImprove, wantPrompt: msgs.ImprovePrompt},
		{input: "больше скидок", wantState: StateGender, wantPrompt: msgs.GenderPrompt},
		{input: "Мужской", wantState: StateAge, wantPrompt: msgs.AgePrompt},
		{input: "???", wantState: StateAge, wantPrompt: msgs.AgeRejected},
		{input: "До 22", wantState: StateVisit, wantPrompt: msgs.VisitPrompt},
	}
	for _, s := range steps {
		require.True(t, f.engine.Handle(ctx, visitor, s.input), s.input)
		require.Equal(t, s.wantState, f.state(t, 100), s.input)
		require.Equal(t, s.wantPrompt, f.lastText(t, 100), s.input)
	}

	sess, _ := f.sessions.Get(100)
	require.Equal(t, "чисто, вкусно", sess.Fields[FieldAppreciate])
	require.NotContains(t, sess.Fields, FieldVisitFreq)

	require.True(t, f.engine.Handle(ctx, visitor, "До 3 раз"))

	_, ok := f.sessions.Get(100)
	require.False(t, ok)
	require.False(t, f.engine.Active(100))

	customers := f.store.Customers()
	require.Len(t, customers, 1)
	got := customers[100]
	require.Equal(t, database.Customer{
		UserID:     100,
		Username:   "visitor",
		FullName:   "Anna K",
		Appreciate: "чисто, вкусно",
		Dislike:    "очереди",
		Improve:    "больше скидок",
		Gender:     "Мужской",
		AgeGroup:   "До 22",
		VisitFreq:  "До 3 раз",
		IsAdmin:    false,
		Timestamp:  got.Timestamp,
	}, got)
	require.Equal(t, 1, f.store.Count("UpsertCustomer"))

	for _, adminID := range []int64{1, 2} {
		note, ok := f.msgr.Last(adminID)
		require.True(t, ok)
		require.Contains(t, note.Text, "📝 Новая анкета")
		require.Contains(t, note.Text, "@visitor (Anna K)")
		require.Contains(t, note.Text, "🆔 ID: 100")
		require.Contains(t, note.Text, "До 3 раз")
	}

	closing, _ := f.msgr.Last(100)
	require.Equal(t, msgs.Closing, closing.Text)
	require.Equal(t, messenger.KeyboardRemove, closing.Keyboard.Kind)

	require.InDelta(t, 1, promtest.ToFloat64(f.metrics.SurveysStarted), 0)
	require.InDelta(t, 1, promtest.ToFloat64(f.metrics.SurveysCompleted), 0)
	require.InDelta(t, 1, promtest.ToFloat64(f.metrics.SurveyRejections.WithLabelValues(StateAge)), 0)
}

// advance drives a fresh flow up to state with valid answers.
func advance(t *testing.T, f *fixture, actor role.Actor, state string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.engine.Start(ctx, actor))
	path := []struct{ at, input string }{
		{StateAwaitingConsent, "Да"},
		{StateAwaitingHelp, "Да"},
		{StateAppreciate, "a"},
		{StateDislike, "b"},
		{StateImprove, "c"},
		{StateGender, "Женский"},
		{StateAge, "22-30"},
	}
	for _, p := range path {
		if p.at == state {
			return
		}
		require.True(t, f.engine.Handle(ctx, actor, p.input))
	}
	require.Equal(t, state, f.state(t, actor.ID))
}

func TestRejectedAnswersAreIdempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state  string
		input  string
		notice func(config.MessagesConfig) string
	}{
		{state: StateGender, input: "Другой", notice: func(m config.MessagesConfig) string { return m.GenderRejected }},
		{state: StateAge, input: "???", notice: func(m config.MessagesConfig) string { return m.AgeRejected }},
		{state: StateVisit, input: "каждый день", notice: func(m config.MessagesConfig) string { return m.VisitRejected }},
		{state: StateAppreciate, input: "", notice: func(m config.MessagesConfig) string { return m.AppreciatePrompt }},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			advance(t, f, visitor, tt.state)
			before, _ := f.sessions.Get(visitor.ID)

			for range 3 {
				require.True(t, f.engine.Handle(context.Background(), visitor, tt.input))

				after, ok := f.sessions.Get(visitor.ID)
				require.True(t, ok)
				require.Equal(t, tt.state, after.State)
				require.Equal(t, before.Fields, after.Fields)
				require.Equal(t, tt.notice(f.cfg.Messages), f.lastText(t, visitor.ID))
			}
			require.Zero(t, f.store.Count("UpsertCustomer"))
		})
	}
}

func TestGatesAdvanceOnAnythingButNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state string
		input string
		next  string
	}{
		{state: StateAwaitingConsent, input: "Конечно", next: StateAwaitingHelp},
		{state: StateAwaitingConsent, input: "да", next: StateAwaitingHelp},
		{state: StateAwaitingHelp, input: "может быть", next: StateAppreciate},
		{state: StateAwaitingHelp, input: "", next: StateAppreciate},
	}

	for _, tt := range tests {
		t.Run(tt.state+" "+tt.input, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			advance(t, f, visitor, tt.state)

			require.True(t, f.engine.Handle(context.Background(), visitor, tt.input))

			require.Equal(t, tt.next, f.state(t, visitor.ID))
			require.Zero(t, promtest.CollectAndCount(f.metrics.SurveyRejections))
		})
	}
}

func TestAnswersAreTrimmed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	advance(t, f, visitor, StateGender)

	require.True(t, f.engine.Handle(context.Background(), visitor, f.cfg.Survey.GenderOptions[0]+" "))

	require.Equal(t, StateAge, f.state(t, visitor.ID))
	sess, _ := f.sessions.Get(visitor.ID)
	require.Equal(t, f.cfg.Survey.GenderOptions[0], sess.Fields[FieldGender])
}

func TestGateDeclineIgnoresCaseAndSpaces(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	advance(t, f, visitor, StateAwaitingConsent)

	require.True(t, f.engine.Handle(context.Background(), visitor, "  НЕТ "))

	_, ok := f.sessions.Get(visitor.ID)
	require.False(t, ok)
	require.Equal(t, f.cfg.Messages.Declined, f.lastText(t, visitor.ID))
}

func TestRejectionKeepsOptionsKeyboard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	advance(t, f, visitor, StateGender)

	f.engine.Handle(context.Background(), visitor, "Другой")

	msg, _ := f.msgr.Last(visitor.ID)
	require.Equal(t, messenger.ReplyKeyboard(f.cfg.Survey.GenderOptions...), msg.Keyboard)
}

func TestDecline(t *testing.T) {
	t.Parallel()

	for _, state := range []string{StateAwaitingConsent, StateAwaitingHelp} {
		t.Run(state, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			advance(t, f, visitor, state)

			require.True(t, f.engine.Handle(context.Background(), visitor, "нет"))

			_, ok := f.sessions.Get(visitor.ID)
			require.False(t, ok)
			require.Equal(t, f.cfg.Messages.Declined, f.lastText(t, visitor.ID))
			require.Zero(t, f.store.Count("UpsertCustomer"))
			require.Empty(t, f.msgr.To(1))
			require.InDelta(t, 1, promtest.ToFloat64(f.metrics.SurveysDeclined), 0)
		})
	}
}

func TestRetake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("customer", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.store.AddCustomer(database.Customer{UserID: 100, Username: "old", FullName: "Old Name", Gender: "Женский"})
		actor := role.Actor{ID: 100, Role: role.Customer}

		require.NoError(t, f.engine.Start(ctx, actor))

		require.Equal(t, StateAwaitingRetake, f.state(t, 100))
		require.Equal(t, []string{f.cfg.Messages.RetakePrompt}, f.msgr.Texts(100))

		require.True(t, f.engine.Handle(ctx, actor, "да"))
		require.Equal(t, StateAwaitingHelp, f.state(t, 100))

		sess, _ := f.sessions.Get(100)
		require.Equal(t, "old", sess.Fields[FieldUsername])
		require.Equal(t, "Old Name", sess.Fields[FieldFullName])
	})

	t.Run("admin", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.store.AddCustomer(database.Customer{UserID: 1, IsAdmin: true})
		actor := role.Actor{ID: 1, Username: "boss", Role: role.Admin}

		require.NoError(t, f.engine.Start(ctx, actor))

		require.Equal(t, f.cfg.Messages.RetakeAdminPrompt, f.lastText(t, 1))
	})

	t.Run("decline retake", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.store.AddCustomer(database.Customer{UserID: 100})
		actor := role.Actor{ID: 100, Role: role.Customer}
		require.NoError(t, f.engine.Start(ctx, actor))

		require.True(t, f.engine.Handle(ctx, actor, "Нет"))

		require.False(t, f.engine.Active(100))
		require.Equal(t, f.cfg.Messages.Declined, f.lastText(t, 100))
	})
}

func TestAdminCompletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	actor := role.Actor{ID: 1, Username: "boss", Role: role.Admin}
	advance(t, f, actor, StateVisit)
	f.msgr.Reset()

	require.True(t, f.engine.Handle(context.Background(), actor, "Более 8 раз"))

	require.True(t, f.store.Customers()[1].IsAdmin)
	require.Empty(t, f.msgr.To(2))
	require.Equal(t, []string{f.cfg.Messages.Closing + f.cfg.Messages.ClosingAdminSuffix}, f.msgr.Texts(1))
}

func TestPersistenceFailureAbandonsFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	advance(t, f, visitor, StateVisit)
	f.store.Fail("UpsertCustomer", errors.New("disk full"))
	f.msgr.Reset()

	require.True(t, f.engine.Handle(context.Background(), visitor, "3-8 раз"))

	require.False(t, f.engine.Active(visitor.ID))
	require.Equal(t, []string{f.cfg.Messages.GeneralError}, f.msgr.Texts(visitor.ID))
	require.Empty(t, f.msgr.To(1))
	require.Empty(t, f.store.Customers())
}

func TestStartLookupFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.store.Fail("GetCustomer", errors.New("db down"))

	err := f.engine.Start(context.Background(), visitor)

	require.Error(t, err)
	require.False(t, f.engine.Active(visitor.ID))
	require.Equal(t, f.cfg.Messages.GeneralError, f.lastText(t, visitor.ID))
}

func TestHandleWithoutFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sessions.Start(visitor.ID, session.StatePendingBroadcast)

	require.False(t, f.engine.Handle(context.Background(), visitor, "Да"))
	require.False(t, f.engine.Handle(context.Background(), role.Actor{ID: 555}, "Да"))
	require.Zero(t, f.msgr.SentCount())
}

func TestOwns(t *testing.T) {
	t.Parallel()
	require.True(t, Owns(StateAwaitingConsent))
	require.True(t, Owns(StateVisit))
	require.False(t, Owns(session.StateChatting))
	require.False(t, Owns(session.StateIdle))
	require.False(t, Owns(stateCompleted))
}
