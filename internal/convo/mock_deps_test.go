package convo_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"crmconsole/backend/internal/models"
)

// MockStore is a testify mock of the engine's storage dependency. Tests
// that care about side-effect ordering pass a shared *callRecorder.
type MockStore struct {
	mock.Mock
	calls *callRecorder
}

// callRecorder captures the order in which collaborators were invoked.
type callRecorder struct {
	order []string
}

func (r *callRecorder) record(name string) {
	if r != nil {
		r.order = append(r.order, name)
	}
}

func (m *MockStore) AppendMessage(msg *models.Message) error {
	m.calls.record("AppendMessage")
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStore) ListBySession(sessionID string) ([]models.Message, error) {
	args := m.Called(sessionID)
	rows, _ := args.Get(0).([]models.Message)
	return rows, args.Error(1)
}

func (m *MockStore) GetConversation(sessionID string) (*models.Conversation, error) {
	args := m.Called(sessionID)
	conv, _ := args.Get(0).(*models.Conversation)
	return conv, args.Error(1)
}

func (m *MockStore) UpdateConversation(sessionID string, updates map[string]interface{}) error {
	m.calls.record("UpdateConversation")
	args := m.Called(sessionID, updates)
	return args.Error(0)
}

func (m *MockStore) GetTemplate(name string) (*models.Template, error) {
	args := m.Called(name)
	tpl, _ := args.Get(0).(*models.Template)
	return tpl, args.Error(1)
}

// MockNotifier records advisory webhook calls. The real implementation is
// fire-and-forget, so the mock never returns anything.
type MockNotifier struct {
	mock.Mock
	calls *callRecorder
}

func (m *MockNotifier) NotifyReply(sessionID, message string, ts time.Time) {
	m.calls.record("NotifyReply")
	m.Called(sessionID, message, ts)
}

func (m *MockNotifier) NotifyTemplate(template, sessionID string) {
	m.calls.record("NotifyTemplate")
	m.Called(template, sessionID)
}

// fakeFeed is a channel-backed live feed for session tests. Events pushed
// into events are delivered to whoever subscribed.
type fakeFeed struct {
	events chan models.Event

	cancelled bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{events: make(chan models.Event, 16)}
}

func (f *fakeFeed) Subscribe(ctx context.Context, sessionID string) (<-chan models.Event, func(), error) {
	return f.events, func() { f.cancelled = true }, nil
}

func (f *fakeFeed) push(ev models.Event) {
	f.events <- ev
}

// fakeClock is a settable clock safe to advance while a session's run
// goroutine is reading it.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
