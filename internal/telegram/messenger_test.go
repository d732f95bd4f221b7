package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dymbot/internal/logger"
	"github.com/edgard/dymbot/internal/messenger"
)

type apiStub struct {
	sent     []*bot.SendMessageParams
	edited   []*bot.EditMessageTextParams
	answered []*bot.AnswerCallbackQueryParams
	chat     *models.ChatFullInfo
	err      error
}

func (a *apiStub) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	a.sent = append(a.sent, p)
	if a.err != nil {
		return nil, a.err
	}
	return &models.Message{ID: 42, Chat: models.Chat{ID: p.ChatID.(int64)}}, nil
}

func (a *apiStub) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	a.edited = append(a.edited, p)
	return &models.Message{}, a.err
}

func (a *apiStub) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	a.answered = append(a.answered, p)
	return a.err == nil, a.err
}

func (a *apiStub) GetChat(context.Context, *bot.GetChatParams) (*models.ChatFullInfo, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.chat, nil
}

func TestSend(t *testing.T) {
	t.Parallel()
	api := &apiStub{}
	m := NewMessenger(api, logger.Discard())

	sent, err := m.Send(context.Background(), messenger.Message{To: 7, Text: "hi"})

	require.NoError(t, err)
	require.Equal(t, messenger.Sent{ChatID: 7, MessageID: 42}, sent)
	require.Len(t, api.sent, 1)
	require.Equal(t, "hi", api.sent[0].Text)
	require.Nil(t, api.sent[0].ReplyMarkup)
}

func TestSendClassifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want messenger.DeliveryKind
	}{
		{name: "blocked", err: fmt.Errorf("%w, Forbidden: bot was blocked by the user", bot.ErrorForbidden), want: messenger.Blocked},
		{name: "chat not found", err: fmt.Errorf("%w, Bad Request: chat not found", bot.ErrorBadRequest), want: messenger.Unreachable},
		{name: "other bad request", err: fmt.Errorf("%w, Bad Request: message is too long", bot.ErrorBadRequest), want: messenger.Transport},
		{name: "network", err: errors.New("dial tcp: i/o timeout"), want: messenger.Transport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMessenger(&apiStub{err: tt.err}, logger.Discard())

			_, err := m.Send(context.Background(), messenger.Message{To: 9, Text: "x"})

			var derr *messenger.DeliveryError
			require.ErrorAs(t, err, &derr)
			require.Equal(t, tt.want, derr.Kind)
			require.Equal(t, int64(9), derr.Recipient)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestReplyMarkup(t *testing.T) {
	t.Parallel()

	require.Nil(t, replyMarkup(messenger.Keyboard{}))
	require.Equal(t, &models.ReplyKeyboardRemove{RemoveKeyboard: true}, replyMarkup(messenger.RemoveKeyboard()))
	require.Equal(t, &models.ReplyKeyboardMarkup{
		Keyboard:       [][]models.KeyboardButton{{{Text: "Да"}}, {{Text: "Нет"}}},
		ResizeKeyboard: true,
	}, replyMarkup(messenger.ReplyKeyboard("Да", "Нет")))
	require.Equal(t, &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{{Text: "ok", CallbackData: "confirm"}}},
	}, replyMarkup(messenger.InlineKeyboard(messenger.Button{Label: "ok", Choice: "confirm"})))
}

func TestFetchProfile(t *testing.T) {
	t.Parallel()
	m := NewMessenger(&apiStub{chat: &models.ChatFullInfo{Username: "anna", FirstName: "Anna", LastName: ""}}, logger.Discard())

	p, err := m.FetchProfile(context.Background(), 5)

	require.NoError(t, err)
	require.Equal(t, messenger.Profile{Username: "anna", FullName: "Anna"}, p)

	m = NewMessenger(&apiStub{err: fmt.Errorf("%w, Bad Request: chat not found", bot.ErrorBadRequest)}, logger.Discard())
	_, err = m.FetchProfile(context.Background(), 5)
	require.Equal(t, messenger.Unreachable, messenger.KindOf(err))
}

func TestEditAndAnswer(t *testing.T) {
	t.Parallel()
	api := &apiStub{}
	m := NewMessenger(api, logger.Discard())
	ctx := context.Background()

	require.NoError(t, m.Edit(ctx, messenger.Ref{ChatID: 3, MessageID: 11}, "done"))
	require.NoError(t, m.AnswerSelection(ctx, "cb", "⛔", true))

	require.Equal(t, 11, api.edited[0].MessageID)
	require.Equal(t, "done", api.edited[0].Text)
	require.Equal(t, &bot.AnswerCallbackQueryParams{CallbackQueryID: "cb", Text: "⛔", ShowAlert: true}, api.answered[0])
}
