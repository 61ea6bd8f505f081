package convo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crmconsole/backend/internal/convo"
	"crmconsole/backend/internal/models"
)

type sessionFixture struct {
	store    *MockStore
	notifier *MockNotifier
	feed     *fakeFeed
	engine   *convo.Engine
	now      time.Time
}

func newSessionFixture(history []models.Message, conv *models.Conversation) *sessionFixture {
	f := &sessionFixture{
		store:    &MockStore{},
		notifier: &MockNotifier{},
		feed:     newFakeFeed(),
		now:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.store.On("ListBySession", "5215550001").Return(history, nil)
	f.store.On("GetConversation", "5215550001").Return(conv, nil)
	f.store.On("UpdateConversation", "5215550001", mock.Anything).Return(nil)
	f.engine = convo.NewEngine(f.store, f.feed, f.notifier, func() time.Time { return f.now })
	return f
}

// receiveUpdate reads one update with a timeout so a broken run loop fails
// the test instead of hanging it.
func receiveUpdate(t *testing.T, s *convo.Session) convo.Update {
	t.Helper()
	select {
	case u, ok := <-s.Updates():
		require.True(t, ok, "updates channel closed unexpectedly")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
		return convo.Update{}
	}
}

func TestOpenSessionFiltersHistory(t *testing.T) {
	f := newSessionFixture([]models.Message{
		msg(1, models.KindHuman, "photo.jpg", models.TagSet{Fotos: true}),
		msg(2, models.KindHuman, "photo.jpg", models.TagSet{}),
		msg(3, models.KindAI, "nice photo!", models.TagSet{}),
	}, nil)

	s, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []uint{1, 3}, ids(s.Snapshot()))
	f.store.AssertCalled(t, "UpdateConversation", "5215550001",
		map[string]interface{}{"last_viewed_at": f.now})
}

func TestSessionMergesLiveInsert(t *testing.T) {
	f := newSessionFixture(nil, nil)
	s, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	defer s.Close()

	f.feed.push(models.Event{
		Type:      models.EventInsert,
		SessionID: "5215550001",
		Message:   msg(1, models.KindHuman, "hello", models.TagSet{}),
	})

	u := receiveUpdate(t, s)
	require.NotNil(t, u.Message)
	assert.Equal(t, uint(1), u.Message.ID)
	assert.Equal(t, []uint{1}, ids(s.Snapshot()))
}

// A redelivered insert must not produce a second update or a second row.
func TestSessionDeduplicatesRedelivery(t *testing.T) {
	f := newSessionFixture(nil, nil)
	s, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	defer s.Close()

	row := msg(1, models.KindHuman, "hello", models.TagSet{})
	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215550001", Message: row})
	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215550001", Message: row})
	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215550001",
		Message: msg(2, models.KindAI, "hi there", models.TagSet{})})

	first := receiveUpdate(t, s)
	second := receiveUpdate(t, s)
	assert.Equal(t, uint(1), first.Message.ID)
	assert.Equal(t, uint(2), second.Message.ID)
	assert.Equal(t, []uint{1, 2}, ids(s.Snapshot()))
}

func TestSessionIgnoresForeignEvents(t *testing.T) {
	f := newSessionFixture(nil, nil)
	s, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	defer s.Close()

	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215559999",
		Message: msg(1, models.KindHuman, "wrong room", models.TagSet{})})
	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215550001",
		Message: msg(2, models.KindHuman, "right room", models.TagSet{})})

	u := receiveUpdate(t, s)
	assert.Equal(t, uint(2), u.Message.ID)
	assert.Equal(t, []uint{2}, ids(s.Snapshot()))
}

// A customer message on a locked window reopens it; the window update is
// pushed before the message update.
func TestSessionCustomerMessageReopensWindow(t *testing.T) {
	stale := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	f := newSessionFixture(nil, &models.Conversation{
		SessionID:             "5215550001",
		LastCustomerMessageAt: &stale,
	})
	s, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, convo.WindowLocked, s.WindowState())

	row := msg(1, models.KindHuman, "hello again", models.TagSet{})
	row.CreatedAt = f.now
	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215550001", Message: row})

	first := receiveUpdate(t, s)
	require.NotNil(t, first.Window)
	assert.Equal(t, convo.WindowOpen, *first.Window)

	second := receiveUpdate(t, s)
	require.NotNil(t, second.Message)
	assert.Equal(t, uint(1), second.Message.ID)
}

func TestSessionCloseReleasesSubscription(t *testing.T) {
	f := newSessionFixture(nil, nil)
	s, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)

	s.Close()
	s.Close() // idempotent

	assert.True(t, f.feed.cancelled)
	_, ok := <-s.Updates()
	assert.False(t, ok, "updates channel must be closed after Close")
}

// Opening a second conversation for the same client tears the first down
// before the new subscription is live.
func TestEngineOpenClosesPrevious(t *testing.T) {
	f := newSessionFixture(nil, nil)
	f.store.On("ListBySession", "5215550002").Return(nil, nil)
	f.store.On("GetConversation", "5215550002").Return(nil, nil)
	f.store.On("UpdateConversation", "5215550002", mock.Anything).Return(nil)

	first, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)

	second, err := f.engine.Open(context.Background(), "agent-1", "5215550002")
	require.NoError(t, err)
	defer second.Close()

	_, ok := <-first.Updates()
	assert.False(t, ok, "previous session must be closed on switch")
}

// A stale socket unwinds after the agent already switched conversations;
// its teardown must hit its own session, never the replacement.
func TestEngineCloseSessionSkipsReplacement(t *testing.T) {
	f := newSessionFixture(nil, nil)
	f.store.On("ListBySession", "5215550002").Return(nil, nil)
	f.store.On("GetConversation", "5215550002").Return(nil, nil)
	f.store.On("UpdateConversation", "5215550002", mock.Anything).Return(nil)

	first, err := f.engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	second, err := f.engine.Open(context.Background(), "agent-1", "5215550002")
	require.NoError(t, err)

	f.engine.CloseSession("agent-1", first)

	// The replacement still receives live events.
	f.feed.push(models.Event{Type: models.EventInsert, SessionID: "5215550002",
		Message: msg(1, models.KindHuman, "still here", models.TagSet{})})
	u := receiveUpdate(t, second)
	require.NotNil(t, u.Message)
	assert.Equal(t, uint(1), u.Message.ID)

	// And it is still the registered session: Close tears it down.
	f.engine.Close("agent-1")
	for range second.Updates() {
	}
}

// The poll ticker must notice a window that locked with no message traffic.
func TestSessionPollTickLocksWindow(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	last := clk.Now().Add(-21 * time.Hour)

	store := &MockStore{}
	store.On("ListBySession", "5215550001").Return(nil, nil)
	store.On("GetConversation", "5215550001").Return(&models.Conversation{
		SessionID:             "5215550001",
		LastCustomerMessageAt: &last,
	}, nil)
	store.On("UpdateConversation", "5215550001", mock.Anything).Return(nil)

	engine := convo.NewEngine(store, newFakeFeed(), &MockNotifier{}, clk.Now)
	engine.SetPollInterval(5 * time.Millisecond)

	s, err := engine.Open(context.Background(), "agent-1", "5215550001")
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, convo.WindowOpen, s.WindowState())

	clk.Advance(2 * time.Hour)

	u := receiveUpdate(t, s)
	require.NotNil(t, u.Window)
	assert.Equal(t, convo.WindowLocked, *u.Window)
}

func TestEngineWindowStateForUnknownConversation(t *testing.T) {
	f := newSessionFixture(nil, nil)

	state, err := f.engine.WindowStateFor("5215550001")
	require.NoError(t, err)
	assert.Equal(t, convo.WindowOpen, state)
}
