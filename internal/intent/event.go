// Package intent turns transport events into a closed set of intents so that
// routing depends on what the sender meant, not on button captions.
package intent

// EventKind distinguishes text messages from menu selections.
type EventKind int

// Event kinds.
const (
	EventText EventKind = iota
	EventSelection
)

// Event is one inbound event with an authenticated sender.
type Event struct {
	Kind     EventKind
	SenderID int64
	Username string
	FullName string
	ChatID   int64
	Private  bool

	// Text events.
	Text      string
	MessageID int
	ReplyTo   *Quoted

	// Selection events.
	ChoiceID    string
	SelectionID string
	// Origin is the message carrying the selected inline keyboard.
	Origin int
}

// Quoted is the message a text event replies to.
type Quoted struct {
	MessageID int
	Text      string
}
