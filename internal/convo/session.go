package convo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"crmconsole/backend/internal/config"
	"crmconsole/backend/internal/models"
)

// Update is one entry of a session's outgoing stream to the console:
// either a newly merged message or a window-state transition.
type Update struct {
	Message *models.Message `json:"message,omitempty"`
	Window  *WindowState    `json:"window,omitempty"`
}

// Session is one open conversation. It owns the subscription handle, the
// window-poll ticker and the in-memory log, and a single run goroutine
// serializes every log mutation: bulk load happens before the goroutine
// starts, live inserts are folded in one by one, and sends never touch the
// log directly (their echo arrives through the feed).
type Session struct {
	ID string

	store      Store
	dispatcher *Dispatcher
	tracker    *WindowTracker
	poll       time.Duration

	mu  sync.Mutex // guards log; the run goroutine is the only mutator
	log *MessageLog

	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
	closing sync.Once
}

// OpenSession loads and filters the history, subscribes to the live feed
// and starts the session's run loop. The window state is re-evaluated at
// every poll tick; poll <= 0 means config.WindowPollInterval. The caller
// must Close the session before opening another one for the same console
// client.
func OpenSession(ctx context.Context, sessionID string, store Store, feed LiveFeed, dispatcher *Dispatcher, clock func() time.Time, poll time.Duration) (*Session, error) {
	rows, err := store.ListBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", sessionID, err)
	}

	conv, err := store.GetConversation(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", sessionID, err)
	}

	tracker := NewWindowTracker(clock)
	if conv != nil {
		tracker.SetLastCustomerMessageAt(conv.LastCustomerMessageAt)
	}

	msgLog := NewMessageLog()
	msgLog.Reload(rows)

	runCtx, cancel := context.WithCancel(ctx)
	events, unsubscribe, err := feed.Subscribe(runCtx, sessionID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to %s: %w", sessionID, err)
	}

	if poll <= 0 {
		poll = config.WindowPollInterval
	}

	s := &Session{
		ID:         sessionID,
		store:      store,
		dispatcher: dispatcher,
		tracker:    tracker,
		poll:       poll,
		log:        msgLog,
		updates:    make(chan Update, config.LiveEventBuffer),
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	now := tracker.now()
	if err := store.UpdateConversation(sessionID, map[string]interface{}{"last_viewed_at": now}); err != nil {
		log.Warn().Err(err).Str("sessionID", sessionID).Msg("Failed to mark conversation viewed")
	}

	go s.run(runCtx, events, unsubscribe)
	return s, nil
}

func (s *Session) run(ctx context.Context, events <-chan models.Event, unsubscribe func()) {
	ticker := time.NewTicker(s.poll)
	defer func() {
		ticker.Stop()
		unsubscribe()
		close(s.updates)
		close(s.done)
	}()

	lastState := s.tracker.State()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			// The feed is per-conversation, but redelivery and late
			// unsubscribes make this guard necessary.
			if ev.Type != models.EventInsert || ev.SessionID != s.ID {
				continue
			}
			s.mu.Lock()
			accepted := s.log.Append(ev.Message)
			s.mu.Unlock()
			if !accepted {
				continue
			}
			if ev.Message.IsCustomer() {
				s.tracker.ObserveCustomerMessage(ev.Message.CreatedAt)
				if st := s.tracker.State(); st != lastState {
					lastState = st
					s.push(Update{Window: &st})
				}
			}
			msg := ev.Message
			s.push(Update{Message: &msg})

		case <-ticker.C:
			if st := s.tracker.State(); st != lastState {
				lastState = st
				s.push(Update{Window: &st})
			}
		}
	}
}

// push forwards an update without ever blocking the run loop. A consumer
// that cannot keep up loses updates and is expected to resync via Render.
func (s *Session) push(u Update) {
	select {
	case s.updates <- u:
	default:
		log.Warn().Str("sessionID", s.ID).Msg("Dropping session update, consumer too slow")
	}
}

// Updates returns the session's outgoing stream. It is closed on Close.
func (s *Session) Updates() <-chan Update { return s.updates }

// Send dispatches a composed payload under the window state of this moment.
func (s *Session) Send(req models.SendRequest) (*models.Message, error) {
	req.SessionID = s.ID
	return s.dispatcher.Send(req, s.tracker.State())
}

// WindowState recomputes the current window state.
func (s *Session) WindowState() WindowState { return s.tracker.State() }

// Snapshot returns the merged log in chronological order.
func (s *Session) Snapshot() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Snapshot()
}

// Render returns the log as render-ready nodes with consecutive automation
// images collapsed.
func (s *Session) Render() []RenderNode {
	return GroupImages(NodesFromMessages(s.Snapshot()))
}

// Close tears the session down: the subscription and the ticker are
// released before Close returns, and the ticker never fires afterwards.
// Close is idempotent.
func (s *Session) Close() {
	s.closing.Do(func() {
		s.cancel()
		<-s.done
	})
}
