package convo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crmconsole/backend/internal/config"
	"crmconsole/backend/internal/models"
)

// Engine tracks which conversation each console client has open and
// enforces the switch discipline: opening a conversation fully tears down
// the client's previous session (subscription and timer included) before
// the new one subscribes, so no rows leak across conversations.
type Engine struct {
	store      Store
	feed       LiveFeed
	dispatcher *Dispatcher
	clock      func() time.Time
	poll       time.Duration

	mu   sync.Mutex
	open map[string]*Session // by console client id
}

// NewEngine wires the engine to its collaborators. A nil clock means
// time.Now.
func NewEngine(store Store, feed LiveFeed, notifier Notifier, clock func() time.Time) *Engine {
	return &Engine{
		store:      store,
		feed:       feed,
		dispatcher: NewDispatcher(store, notifier),
		clock:      clock,
		poll:       config.WindowPollInterval,
		open:       make(map[string]*Session),
	}
}

// SetPollInterval overrides how often open sessions re-evaluate the window
// state. Values <= 0 keep the default. Applies to sessions opened afterwards.
func (e *Engine) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.poll = d
	}
}

// Open opens sessionID for the given console client, closing whatever that
// client had open before.
func (e *Engine) Open(ctx context.Context, clientID, sessionID string) (*Session, error) {
	e.mu.Lock()
	prev := e.open[clientID]
	delete(e.open, clientID)
	e.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	s, err := OpenSession(ctx, sessionID, e.store, e.feed, e.dispatcher, e.clock, e.poll)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.open[clientID] = s
	e.mu.Unlock()
	return s, nil
}

// Close closes the client's open session, if any.
func (e *Engine) Close(clientID string) {
	e.mu.Lock()
	s := e.open[clientID]
	delete(e.open, clientID)
	e.mu.Unlock()

	if s != nil {
		s.Close()
	}
}

// CloseSession closes s and removes it from the client's slot only if it is
// still the session registered there. Socket teardown runs concurrently with
// conversation switches; a stale socket's teardown must not take down the
// session that replaced its own.
func (e *Engine) CloseSession(clientID string, s *Session) {
	if s == nil {
		return
	}
	e.mu.Lock()
	if e.open[clientID] == s {
		delete(e.open, clientID)
	}
	e.mu.Unlock()

	s.Close()
}

// Send dispatches without an open session, e.g. from the REST surface. The
// window state is recomputed from the persisted conversation row.
func (e *Engine) Send(req models.SendRequest) (*models.Message, error) {
	state, err := e.WindowStateFor(req.SessionID)
	if err != nil {
		return nil, err
	}
	return e.dispatcher.Send(req, state)
}

// SendNote persists an internal annotation for a conversation.
func (e *Engine) SendNote(sessionID, text string) (*models.Message, error) {
	return e.dispatcher.SendNote(sessionID, text)
}

// WindowStateFor computes the current window state of a conversation from
// its persisted row.
func (e *Engine) WindowStateFor(sessionID string) (WindowState, error) {
	conv, err := e.store.GetConversation(sessionID)
	if err != nil {
		return "", fmt.Errorf("load conversation %s: %w", sessionID, err)
	}
	tracker := NewWindowTracker(e.clock)
	if conv != nil {
		tracker.SetLastCustomerMessageAt(conv.LastCustomerMessageAt)
	}
	return tracker.State(), nil
}
