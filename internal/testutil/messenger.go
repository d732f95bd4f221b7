package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/edgard/dymbot/internal/messenger"
)

// ErrDelivery is the cause wrapped by injected delivery failures.
var ErrDelivery = errors.New("injected delivery failure")

// Edit is a recorded Messenger.Edit call.
type Edit struct {
	Ref  messenger.Ref
	Text string
}

// Answer is a recorded Messenger.AnswerSelection call.
type Answer struct {
	SelectionID string
	Text        string
	Alert       bool
}

// FakeMessenger records every outbound call. Recipients in FailFor fail with
// the given kind; Sent contains attempted sends, successful or not.
type FakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	Sent    []messenger.Message
	Failed  []messenger.Message
	Edits   []Edit
	Answers []Answer

	FailFor    map[int64]messenger.DeliveryKind
	Profiles   map[int64]messenger.Profile
	ProfileErr error
	EditErr    error
}

var _ messenger.Messenger = (*FakeMessenger)(nil)

// NewFakeMessenger creates a messenger that delivers everything.
func NewFakeMessenger() *FakeMessenger {
	return &FakeMessenger{
		nextID:   1000,
		FailFor:  make(map[int64]messenger.DeliveryKind),
		Profiles: make(map[int64]messenger.Profile),
	}
}

// FailRecipient makes every send to id fail with kind.
func (f *FakeMessenger) FailRecipient(id int64, kind messenger.DeliveryKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailFor[id] = kind
}

func (f *FakeMessenger) Send(_ context.Context, msg messenger.Message) (messenger.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sent = append(f.Sent, msg)
	if kind, ok := f.FailFor[msg.To]; ok {
		f.Failed = append(f.Failed, msg)
		return messenger.Sent{}, &messenger.DeliveryError{Kind: kind, Recipient: msg.To, Err: ErrDelivery}
	}
	f.nextID++
	return messenger.Sent{ChatID: msg.To, MessageID: f.nextID}, nil
}

func (f *FakeMessenger) Edit(_ context.Context, ref messenger.Ref, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EditErr != nil {
		return f.EditErr
	}
	f.Edits = append(f.Edits, Edit{Ref: ref, Text: text})
	return nil
}

func (f *FakeMessenger) FetchProfile(_ context.Context, userID int64) (messenger.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProfileErr != nil {
		return messenger.Profile{}, f.ProfileErr
	}
	return f.Profiles[userID], nil
}

func (f *FakeMessenger) AnswerSelection(_ context.Context, selectionID, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Answers = append(f.Answers, Answer{SelectionID: selectionID, Text: text, Alert: alert})
	return nil
}

// To returns every attempted send to id.
func (f *FakeMessenger) To(id int64) []messenger.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []messenger.Message
	for _, m := range f.Sent {
		if m.To == id {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the last attempted send to id and whether there was one.
func (f *FakeMessenger) Last(id int64) (messenger.Message, bool) {
	msgs := f.To(id)
	if len(msgs) == 0 {
		return messenger.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Texts returns the texts of every attempted send to id.
func (f *FakeMessenger) Texts(id int64) []string {
	var out []string
	for _, m := range f.To(id) {
		out = append(out, m.Text)
	}
	return out
}

// CountContaining returns how many attempted sends contain substr.
func (f *FakeMessenger) CountContaining(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.Sent {
		if strings.Contains(m.Text, substr) {
			n++
		}
	}
	return n
}

// Reset forgets every recorded call.
func (f *FakeMessenger) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent, f.Failed, f.Edits, f.Answers = nil, nil, nil, nil
}

// SentCount returns the number of attempted sends.
func (f *FakeMessenger) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
