package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dymbot/internal/admin"
	"github.com/edgard/dymbot/internal/broadcast"
	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/logger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
	"github.com/edgard/dymbot/internal/survey"
	"github.com/edgard/dymbot/internal/testutil"
)

const (
	adminID    = int64(1)
	deputyID   = int64(2)
	customerID = int64(100)
	strangerID = int64(300)
)

type fixture struct {
	d        *Dispatcher
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
	f.store.AddAdmin(adminID, "boss")
	f.store.AddAdmin(deputyID, "deputy")
	f.store.AddCustomer(database.Customer{UserID: customerID, Username: "buyer", FullName: "Ivan P"})

	log := logger.Discard()
	rel := relay.New(relay.Deps{
		Logger: log, Config: f.cfg, Store: f.store, Messenger: f.msgr, Sessions: f.sessions, Metrics: f.metrics,
	})
	f.d = New(Deps{
		Logger:     log,
		Config:     f.cfg,
		Sessions:   f.sessions,
		Classifier: role.NewClassifier(f.cfg.Telegram.SuperAdminID, f.store, log),
		Messenger:  f.msgr,
		Metrics:    f.metrics,
		Survey: survey.New(survey.Deps{
			Logger: log, Config: f.cfg, Store: f.store, Messenger: f.msgr, Sessions: f.sessions,
			Notifier: rel, Metrics: f.metrics,
		}),
		Relay: rel,
		Broadcast: broadcast.New(broadcast.Deps{
			Logger: log, Config: f.cfg, Store: f.store, Messenger: f.msgr, Sessions: f.sessions,
			Notifier: rel, Metrics: f.metrics, Pause: func(time.Duration) {},
		}),
		Admin: admin.New(admin.Deps{
			Logger: log, Config: f.cfg, Store: f.store, Messenger: f.msgr, Sessions: f.sessions,
			Notifier: rel, Metrics: f.metrics,
		}),
	})
	return f
}

func (f *fixture) text(id int64, text string) {
	f.d.Handle(context.Background(), intent.Event{
		Kind: intent.EventText, SenderID: id, ChatID: id, Private: true, Text: text, Username: fmt.Sprint("user", id),
	})
}

func (f *fixture) choose(id int64, data string, origin int) {
	f.d.Handle(context.Background(), intent.Event{
		Kind: intent.EventSelection, SenderID: id, ChatID: id, Private: true,
		ChoiceID: data, SelectionID: "cb-" + data, Origin: origin,
	})
}

func (f *fixture) lastText(t *testing.T, id int64) string {
	t.Helper()
	msg, ok := f.msgr.Last(id)
	require.True(t, ok, "no message to %d", id)
	return msg.Text
}

func TestSurveyThroughDispatcher(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(strangerID, "/start")
	for _, answer := range []string{"Да", "Да", "чисто", "очереди", "скидки", "Женский", "22-30", "3-8 раз"} {
		f.text(strangerID, answer)
	}

	got, ok := f.store.Customers()[strangerID]
	require.True(t, ok)
	require.Equal(t, "Женский", got.Gender)
	require.Equal(t, "3-8 раз", got.VisitFreq)
	require.Equal(t, f.cfg.Messages.Closing, f.lastText(t, strangerID))
	require.Contains(t, f.lastText(t, adminID), "📝 Новая анкета")
	require.Contains(t, f.lastText(t, deputyID), "📝 Новая анкета")
}

func TestMenuLabelDuringSurveyIsAnAnswerForCustomers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(strangerID, "/start")
	f.text(strangerID, f.cfg.Labels.Report)

	require.Equal(t, f.cfg.Messages.HelpPrompt, f.lastText(t, strangerID))
	require.Zero(t, f.store.Count("CountCustomers"))
}

func TestCustomerText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sender    int64
		text      string
		private   bool
		wantRelay bool
	}{
		{name: "customer is relayed", sender: customerID, text: "где вы находитесь?", private: true, wantRelay: true},
		{name: "unknown sender is ignored", sender: strangerID, text: "привет", private: true},
		{name: "unknown command is ignored", sender: customerID, text: "/help", private: true},
		{name: "group chat is ignored", sender: customerID, text: "привет", private: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			f.d.Handle(context.Background(), intent.Event{
				Kind: intent.EventText, SenderID: tt.sender, ChatID: tt.sender, Private: tt.private, Text: tt.text,
			})

			if !tt.wantRelay {
				require.Zero(t, f.msgr.SentCount())
				return
			}
			require.Contains(t, f.lastText(t, adminID), tt.text)
			require.Contains(t, f.lastText(t, deputyID), tt.text)
			require.Equal(t, f.cfg.Messages.CustomerAck, f.lastText(t, tt.sender))
		})
	}
}

func TestAdminReplyToEnvelope(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(customerID, "есть доставка?")
	env, ok := f.msgr.Last(adminID)
	require.True(t, ok)
	envelope := f.msgr.To(adminID)
	require.Len(t, envelope, 1)

	// Relayed envelopes are numbered in send order; the first went to admin 1.
	f.d.Handle(context.Background(), intent.Event{
		Kind: intent.EventText, SenderID: adminID, ChatID: adminID, Private: true, Text: "да, по городу",
		ReplyTo: &intent.Quoted{MessageID: 1001, Text: env.Text},
	})

	require.Equal(t, fmt.Sprintf(f.cfg.Messages.AdminReplyFmt, "да, по городу"), f.lastText(t, customerID))
	require.Equal(t, f.cfg.Messages.ReplyDelivered, f.lastText(t, adminID))
}

func TestAdminFreeTextGetsHint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, "просто текст")

	require.Equal(t, f.cfg.Messages.AdminHint, f.lastText(t, adminID))
}

func TestAdminMenuInGroupIsIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.d.Handle(context.Background(), intent.Event{
		Kind: intent.EventText, SenderID: adminID, ChatID: -500, Private: false, Text: f.cfg.Labels.Report,
	})

	require.Zero(t, f.msgr.SentCount())
}

func TestCommands(t *testing.T) {
	t.Parallel()

	t.Run("admin panel", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.text(adminID, "/admin")
		require.Equal(t, f.cfg.Messages.AdminPanel, f.lastText(t, adminID))
	})

	t.Run("admin panel refused", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.text(customerID, "/admin")
		require.Equal(t, f.cfg.Messages.NotAdmin, f.lastText(t, customerID))
	})

	t.Run("debug for anyone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.text(strangerID, "/debug")
		require.Contains(t, f.lastText(t, strangerID), fmt.Sprintf("🆔 Ваш ID: %d", strangerID))
	})

	t.Run("retake for known customer", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.text(customerID, "/start")
		require.Equal(t, f.cfg.Messages.RetakePrompt, f.lastText(t, customerID))
	})
}

func TestBroadcastFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	labels := f.cfg.Labels

	f.text(adminID, labels.Broadcast)
	require.Equal(t, f.cfg.Messages.BroadcastPrompt, f.lastText(t, adminID))

	f.text(adminID, "скидка 20%")

	require.Equal(t, fmt.Sprintf(f.cfg.Messages.CampaignFmt, "скидка 20%"), f.lastText(t, customerID))
	require.Contains(t, f.lastText(t, deputyID), "скидка 20%")
	require.InDelta(t, 1, promtest.ToFloat64(f.metrics.BroadcastRuns), 0)
}

func TestBroadcastCancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, f.cfg.Labels.Broadcast)
	f.text(adminID, f.cfg.Labels.Cancel)
	f.text(adminID, "это уже не рассылка")

	require.Empty(t, f.msgr.To(customerID))
	require.Equal(t, f.cfg.Messages.AdminHint, f.lastText(t, adminID))
	require.Contains(t, f.msgr.Texts(adminID), f.cfg.Messages.BroadcastCancelled)
}

func TestClearCustomersConfirm(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, f.cfg.Labels.ClearCustomers)
	prompt, ok := f.msgr.Last(adminID)
	require.True(t, ok)
	sess, _ := f.sessions.Get(adminID)

	f.choose(adminID, intent.TokenConfirmClearCustomers, sess.PromptID)

	require.Equal(t, f.cfg.Messages.ClearCustomersPrompt, prompt.Text)
	require.Empty(t, f.store.Customers())
	require.Equal(t, f.cfg.Messages.ClearCustomersDone, f.msgr.Edits[0].Text)
}

func TestPendingConfirmIsCancelledByOtherInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, f.cfg.Labels.ClearCustomers)
	sess, _ := f.sessions.Get(adminID)
	f.text(adminID, "что-то другое")

	require.Equal(t, []testutil.Edit{{
		Ref:  f.msgr.Edits[0].Ref,
		Text: f.cfg.Messages.ClearCustomersCancelled,
	}}, f.msgr.Edits)
	require.Equal(t, sess.PromptID, f.msgr.Edits[0].Ref.MessageID)
	require.Equal(t, f.cfg.Messages.AdminHint, f.lastText(t, adminID))

	f.choose(adminID, intent.TokenConfirmClearCustomers, sess.PromptID)

	require.Len(t, f.store.Customers(), 1)
	require.Zero(t, f.store.Count("DeleteAllCustomers"))
}

func TestClearAdminsRefusedForAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, f.cfg.Labels.ClearAdmins)
	f.choose(adminID, intent.TokenConfirmClearAdmins, 0)

	require.Equal(t, f.cfg.Messages.InsufficientRights, f.lastText(t, adminID))
	require.Equal(t, f.cfg.Messages.InsufficientRightsAlert, f.msgr.Answers[0].Text)
	require.Zero(t, f.store.Count("DeleteAdminsExcept"))
	require.Equal(t, []int64{adminID, deputyID}, f.store.AdminIDs())
}

func TestPinnedChat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	labels := f.cfg.Labels

	f.text(adminID, labels.ChatWithClient)
	sess, _ := f.sessions.Get(adminID)
	f.choose(adminID, intent.PickCustomerToken(customerID), sess.PromptID)
	require.Equal(t, "", f.msgr.Answers[0].Text)

	f.text(adminID, "здравствуйте")
	require.Equal(t, fmt.Sprintf(f.cfg.Messages.AdminMessageFmt, "здравствуйте"), f.lastText(t, customerID))
	require.Equal(t, f.cfg.Messages.ChatDelivered, f.lastText(t, adminID))

	f.text(adminID, labels.EndChat)
	require.Equal(t, f.cfg.Messages.ChatEnded, f.lastText(t, adminID))

	f.text(adminID, "после чата")
	require.Equal(t, f.cfg.Messages.AdminHint, f.lastText(t, adminID))
	require.Len(t, f.msgr.To(customerID), 1)
}

func TestEnvelopeReplyWinsOverPinnedChat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	const otherID = int64(200)
	f.store.AddCustomer(database.Customer{UserID: otherID, Username: "petr", FullName: "Petr S"})

	f.text(adminID, f.cfg.Labels.ChatWithClient)
	sess, _ := f.sessions.Get(adminID)
	f.choose(adminID, intent.PickCustomerToken(customerID), sess.PromptID)

	f.text(otherID, "а вы работаете в субботу?")
	env, ok := f.msgr.Last(adminID)
	require.True(t, ok)

	f.d.Handle(context.Background(), intent.Event{
		Kind: intent.EventText, SenderID: adminID, ChatID: adminID, Private: true, Text: "да, до 20:00",
		ReplyTo: &intent.Quoted{MessageID: 1, Text: env.Text},
	})

	require.Equal(t, fmt.Sprintf(f.cfg.Messages.AdminReplyFmt, "да, до 20:00"), f.lastText(t, otherID))
	require.Empty(t, f.msgr.To(customerID))
	require.Equal(t, f.cfg.Messages.ReplyDelivered, f.lastText(t, adminID))

	f.text(adminID, "а это вам")
	require.Equal(t, fmt.Sprintf(f.cfg.Messages.AdminMessageFmt, "а это вам"), f.lastText(t, customerID))
}

func TestMenuChoiceEndsPinnedChat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, f.cfg.Labels.ChatWithClient)
	sess, _ := f.sessions.Get(adminID)
	f.choose(adminID, intent.PickCustomerToken(customerID), sess.PromptID)

	f.text(adminID, f.cfg.Labels.Report)

	texts := f.msgr.Texts(adminID)
	require.Contains(t, texts, f.cfg.Messages.ChatEnded)
	require.Contains(t, texts[len(texts)-1], "📊 Отчёт по базе")
	require.Empty(t, f.msgr.To(customerID))
}

func TestSelectionAnswers(t *testing.T) {
	t.Parallel()

	t.Run("pick without pending selection", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.choose(adminID, intent.PickCustomerToken(customerID), 55)
		require.Equal(t, f.cfg.Messages.SelectionExpired, f.msgr.Answers[0].Text)
		require.False(t, f.msgr.Answers[0].Alert)
	})

	t.Run("pick by customer", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.choose(customerID, intent.PickCustomerToken(customerID), 55)
		require.Equal(t, f.cfg.Messages.InsufficientRightsAlert, f.msgr.Answers[0].Text)
		require.True(t, f.msgr.Answers[0].Alert)
	})

	t.Run("unknown payload", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.choose(adminID, "garbage", 55)
		require.Equal(t, f.cfg.Messages.SelectionExpired, f.msgr.Answers[0].Text)
	})
}

func TestEventMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.text(adminID, "/admin")
	f.text(customerID, "вопрос")
	f.text(customerID, "ещё вопрос")

	require.InDelta(t, 1, promtest.ToFloat64(f.metrics.Events.WithLabelValues("admin", "command")), 0)
	require.InDelta(t, 2, promtest.ToFloat64(f.metrics.Events.WithLabelValues("customer", "text")), 0)
}
