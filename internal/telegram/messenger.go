package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/dymbot/internal/messenger"
)

const defaultCallTimeout = 10 * time.Second

// API is the subset of *bot.Bot the messenger calls.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
}

var _ API = (*bot.Bot)(nil)

// Messenger delivers outbound messages through the Telegram Bot API.
type Messenger struct {
	api     API
	log     *slog.Logger
	timeout time.Duration
}

var _ messenger.Messenger = (*Messenger)(nil)

// NewMessenger wraps api. Every call is bounded by a ten second timeout.
func NewMessenger(api API, logger *slog.Logger) *Messenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Messenger{api: api, log: logger.With("component", "telegram_messenger"), timeout: defaultCallTimeout}
}

// Send delivers msg. Failures are returned as *messenger.DeliveryError.
func (m *Messenger) Send(ctx context.Context, msg messenger.Message) (messenger.Sent, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	params := &bot.SendMessageParams{ChatID: msg.To, Text: msg.Text}
	if markup := replyMarkup(msg.Keyboard); markup != nil {
		params.ReplyMarkup = markup
	}

	sent, err := m.api.SendMessage(ctx, params)
	if err != nil {
		return messenger.Sent{}, classify(msg.To, err)
	}
	return messenger.Sent{ChatID: sent.Chat.ID, MessageID: sent.ID}, nil
}

// Edit replaces the text of a sent message and drops its inline keyboard.
func (m *Messenger) Edit(ctx context.Context, ref messenger.Ref, text string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      text,
	})
	if err != nil {
		return classify(ref.ChatID, err)
	}
	return nil
}

// FetchProfile reads the username and full name of userID.
func (m *Messenger) FetchProfile(ctx context.Context, userID int64) (messenger.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	chat, err := m.api.GetChat(ctx, &bot.GetChatParams{ChatID: userID})
	if err != nil {
		return messenger.Profile{}, fmt.Errorf("failed to get chat %d: %w", userID, classify(userID, err))
	}
	return messenger.Profile{
		Username: chat.Username,
		FullName: strings.TrimSpace(chat.FirstName + " " + chat.LastName),
	}, nil
}

// AnswerSelection acknowledges a callback query, optionally as an alert.
func (m *Messenger) AnswerSelection(ctx context.Context, selectionID, text string, alert bool) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, err := m.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: selectionID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// replyMarkup converts kb into its Bot API form. A KeyboardNone keyboard
// leaves the current one in place.
func replyMarkup(kb messenger.Keyboard) models.ReplyMarkup {
	switch kb.Kind {
	case messenger.KeyboardReply:
		rows := make([][]models.KeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]models.KeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, models.KeyboardButton{Text: b.Label})
			}
			rows = append(rows, buttons)
		}
		return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
	case messenger.KeyboardInline:
		rows := make([][]models.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]models.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, models.InlineKeyboardButton{Text: b.Label, CallbackData: b.Choice})
			}
			rows = append(rows, buttons)
		}
		return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
	case messenger.KeyboardRemove:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	default:
		return nil
	}
}

// classify maps a Bot API error onto a delivery failure kind.
func classify(recipient int64, err error) *messenger.DeliveryError {
	kind := messenger.Transport
	switch {
	case errors.Is(err, bot.ErrorForbidden):
		kind = messenger.Blocked
	case errors.Is(err, bot.ErrorBadRequest):
		lower := strings.ToLower(err.Error())
		if strings.Contains(lower, "chat not found") || strings.Contains(lower, "user not found") ||
			strings.Contains(lower, "user is deactivated") {
			kind = messenger.Unreachable
		}
	}
	return &messenger.DeliveryError{Kind: kind, Recipient: recipient, Err: err}
}
