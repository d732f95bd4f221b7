// Package session keeps the per-identity conversation state of survey and
// admin flows in memory, with an idle expiry.
package session

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Admin flow states. Survey states are owned by the survey engine.
const (
	StateIdle                  = ""
	StatePendingBroadcast      = "pending_broadcast"
	StatePendingAddAdmin       = "pending_add_admin"
	StateConfirmClearAdmins    = "confirm_clear_admins"
	StateConfirmClearCustomers = "confirm_clear_customers"
	StateSelectingCustomer     = "selecting_customer"
	StateChatting              = "chatting"
)

// Session is the mutable state of one flow.
type Session struct {
	// FlowID correlates the log lines of one flow.
	FlowID uuid.UUID
	UserID int64
	State  string
	Fields map[string]string
	// PinnedID is the customer of a pinned chat.
	PinnedID int64
	// PromptID is the message carrying a pending inline prompt.
	PromptID  int
	StartedAt time.Time
	UpdatedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds at most one session per identity. Values are copied in and out,
// so callers never share a Fields map.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*identityLock
	ttl      time.Duration
	now      func() time.Time
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a store expiring sessions idle for longer than ttl.
// A non-positive ttl disables expiry.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*identityLock),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live session of userID.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, userID)
		return Session{}, false
	}
	return clone(sess), true
}

// Start replaces any session of userID with a fresh one in state.
func (s *Store) Start(userID int64, state string) Session {
	now := s.now()
	sess := &Session{
		FlowID:    uuid.New(),
		UserID:    userID,
		State:     state,
		Fields:    make(map[string]string),
		StartedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()

	return clone(sess)
}

// Save stores sess and refreshes its idle timer.
func (s *Store) Save(sess Session) {
	sess.UpdatedAt = s.now()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = sess.UpdatedAt
	}
	if sess.FlowID == uuid.Nil {
		sess.FlowID = uuid.New()
	}
	stored := clone(&sess)

	s.mu.Lock()
	s.sessions[sess.UserID] = &stored
	s.mu.Unlock()
}

// Delete destroys the session of userID, if any.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Sweep drops every expired session and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Lock serialises event processing for userID. The returned func releases it.
func (s *Store) Lock(userID int64) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &identityLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.UpdatedAt) > s.ttl
}

func clone(sess *Session) Session {
	c := *sess
	c.Fields = maps.Clone(sess.Fields)
	if c.Fields == nil {
		c.Fields = make(map[string]string)
	}
	return c
}
