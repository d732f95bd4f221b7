package handlers

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/dymbot/internal/intent"
)

// EventFromUpdate converts a text message or a callback query into an event.
// It reports false for every other update and for messages without text.
func EventFromUpdate(update *models.Update) (intent.Event, bool) {
	switch {
	case update.Message != nil:
		return eventFromMessage(update.Message)
	case update.CallbackQuery != nil:
		return eventFromCallback(update.CallbackQuery), true
	default:
		return intent.Event{}, false
	}
}

func eventFromMessage(msg *models.Message) (intent.Event, bool) {
	if msg.From == nil || msg.From.IsBot {
		return intent.Event{}, false
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return intent.Event{}, false
	}

	ev := intent.Event{
		Kind:      intent.EventText,
		SenderID:  msg.From.ID,
		Username:  msg.From.Username,
		FullName:  fullName(msg.From),
		ChatID:    msg.Chat.ID,
		Private:   msg.Chat.Type == models.ChatTypePrivate,
		Text:      text,
		MessageID: msg.ID,
	}
	if quoted := msg.ReplyToMessage; quoted != nil {
		quotedText := quoted.Text
		if quotedText == "" {
			quotedText = quoted.Caption
		}
		ev.ReplyTo = &intent.Quoted{MessageID: quoted.ID, Text: quotedText}
	}
	return ev, true
}

func eventFromCallback(cq *models.CallbackQuery) intent.Event {
	ev := intent.Event{
		Kind:        intent.EventSelection,
		SenderID:    cq.From.ID,
		Username:    cq.From.Username,
		FullName:    fullName(&cq.From),
		ChoiceID:    cq.Data,
		SelectionID: cq.ID,
	}
	switch {
	case cq.Message.Message != nil:
		ev.ChatID = cq.Message.Message.Chat.ID
		ev.Private = cq.Message.Message.Chat.Type == models.ChatTypePrivate
		ev.Origin = cq.Message.Message.ID
	case cq.Message.InaccessibleMessage != nil:
		ev.ChatID = cq.Message.InaccessibleMessage.Chat.ID
		ev.Private = cq.Message.InaccessibleMessage.Chat.Type == models.ChatTypePrivate
		ev.Origin = cq.Message.InaccessibleMessage.MessageID
	default:
		ev.ChatID = cq.From.ID
		ev.Private = true
	}
	return ev
}

func fullName(u *models.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
