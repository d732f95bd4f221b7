// Package messenger defines the outbound messaging boundary: what can be sent,
// how keyboards are described, and how delivery failures are reported.
package messenger

import (
	"context"
	"errors"
	"fmt"
)

// Messenger sends and edits messages on behalf of the bot.
type Messenger interface {
	// Send delivers msg. A failed delivery is reported as a *DeliveryError.
	Send(ctx context.Context, msg Message) (Sent, error)

	// Edit replaces the text of a previously sent message and drops its inline keyboard.
	Edit(ctx context.Context, ref Ref, text string) error

	// FetchProfile returns the public profile of a user.
	FetchProfile(ctx context.Context, userID int64) (Profile, error)

	// AnswerSelection acknowledges a menu selection, optionally as an alert.
	AnswerSelection(ctx context.Context, selectionID, text string, alert bool) error
}

// Message is a single outbound text message.
type Message struct {
	To       int64
	Text     string
	Keyboard Keyboard
}

// Sent identifies a delivered message.
type Sent struct {
	ChatID    int64
	MessageID int
}

// Ref points at a previously delivered message.
type Ref struct {
	ChatID    int64
	MessageID int
}

// Profile is the public profile of a user.
type Profile struct {
	Username string
	FullName string
}

// KeyboardKind selects how a keyboard is attached to a message.
type KeyboardKind int

// Keyboard kinds.
const (
	KeyboardNone KeyboardKind = iota
	KeyboardReply
	KeyboardInline
	KeyboardRemove
)

// Button is one keyboard button. Choice is the selection payload of inline
// buttons and is ignored for reply keyboards.
type Button struct {
	Label  string
	Choice string
}

// Keyboard describes the keyboard attached to a message.
type Keyboard struct {
	Kind KeyboardKind
	Rows [][]Button
}

// ReplyKeyboard builds a reply keyboard with one button per label, one per row.
func ReplyKeyboard(labels ...string) Keyboard {
	rows := make([][]Button, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []Button{{Label: l}})
	}
	return Keyboard{Kind: KeyboardReply, Rows: rows}
}

// ReplyRow builds a reply keyboard with all labels on a single row.
func ReplyRow(labels ...string) Keyboard {
	row := make([]Button, 0, len(labels))
	for _, l := range labels {
		row = append(row, Button{Label: l})
	}
	return Keyboard{Kind: KeyboardReply, Rows: [][]Button{row}}
}

// InlineKeyboard builds an inline keyboard with one button per row.
func InlineKeyboard(buttons ...Button) Keyboard {
	rows := make([][]Button, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Button{b})
	}
	return Keyboard{Kind: KeyboardInline, Rows: rows}
}

// RemoveKeyboard asks the client to drop any reply keyboard.
func RemoveKeyboard() Keyboard {
	return Keyboard{Kind: KeyboardRemove}
}

// DeliveryKind classifies a failed delivery.
type DeliveryKind int

// Delivery failure kinds.
const (
	// Transport is any failure talking to the messaging service.
	Transport DeliveryKind = iota
	// Unreachable means the recipient does not exist or never started a chat.
	Unreachable
	// Blocked means the recipient blocked the bot.
	Blocked
)

func (k DeliveryKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Blocked:
		return "blocked"
	default:
		return "transport"
	}
}

// DeliveryError reports a failed send to one recipient.
type DeliveryError struct {
	Kind      DeliveryKind
	Recipient int64
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %d failed (%s): %v", e.Recipient, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// KindOf returns the delivery kind of err, or Transport if err is not a *DeliveryError.
func KindOf(err error) DeliveryKind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return Transport
}
