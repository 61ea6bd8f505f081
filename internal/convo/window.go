package convo

import (
	"sync"
	"time"

	"crmconsole/backend/internal/config"
)

// WindowState tells whether free-form outbound replies are currently
// allowed for a conversation, per the messaging provider's 24h policy.
type WindowState string

const (
	// WindowOpen allows free-form replies.
	WindowOpen WindowState = "open"
	// WindowLocked allows template sends only.
	WindowLocked WindowState = "locked"
)

// WindowTracker computes the session-window state from the timestamp of the
// last inbound customer message. The provider's internal clock closes
// windows config.ProviderClockOffset earlier than the wall clock, so the
// effective reference is lastCustomerMessageAt minus that offset.
//
// The tracker never caches: State recomputes on every call. The session's
// poll ticker exists to surface LOCKED transitions to the UI, not to keep
// the tracker fresh.
type WindowTracker struct {
	mu             sync.Mutex
	now            func() time.Time
	lastCustomerAt *time.Time
}

// NewWindowTracker creates a tracker. A nil clock means time.Now.
func NewWindowTracker(clock func() time.Time) *WindowTracker {
	if clock == nil {
		clock = time.Now
	}
	return &WindowTracker{now: clock}
}

// SetLastCustomerMessageAt replaces the reference timestamp, e.g. on
// conversation open from the persisted conversation row.
func (t *WindowTracker) SetLastCustomerMessageAt(ts *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastCustomerAt = ts
}

// ObserveCustomerMessage advances the reference timestamp when a newer
// inbound customer row arrives.
func (t *WindowTracker) ObserveCustomerMessage(ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastCustomerAt == nil || ts.After(*t.lastCustomerAt) {
		t.lastCustomerAt = &ts
	}
}

// State recomputes the current window state. A conversation with no
// recorded customer message is open by default.
func (t *WindowTracker) State() WindowState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastCustomerAt == nil {
		return WindowOpen
	}
	// The window stays open through the exact boundary instant and locks
	// strictly after it.
	effective := t.lastCustomerAt.Add(-config.ProviderClockOffset)
	if t.now().Sub(effective) > config.SessionWindowDuration {
		return WindowLocked
	}
	return WindowOpen
}
