package convo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crmconsole/backend/internal/convo"
)

func TestWindowStateNoCustomerMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tracker := convo.NewWindowTracker(func() time.Time { return now })

	assert.Equal(t, convo.WindowOpen, tracker.State())
}

// The provider stamps rows two hours behind wall clock, so the lock
// boundary sits at 22h of local age, not 24h.
func TestWindowStateBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		age  time.Duration
		want convo.WindowState
	}{
		{"fresh", 5 * time.Minute, convo.WindowOpen},
		{"nearly a day old", 21*time.Hour + 59*time.Minute, convo.WindowOpen},
		{"exact boundary", 22 * time.Hour, convo.WindowOpen},
		{"just past", 22*time.Hour + time.Second, convo.WindowLocked},
		{"a day and change", 25*time.Hour + 59*time.Minute, convo.WindowLocked},
		{"long stale", 26 * time.Hour, convo.WindowLocked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := convo.NewWindowTracker(func() time.Time { return now })
			last := now.Add(-tc.age)
			tracker.SetLastCustomerMessageAt(&last)

			assert.Equal(t, tc.want, tracker.State())
		})
	}
}

func TestWindowReopensOnCustomerMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tracker := convo.NewWindowTracker(func() time.Time { return now })

	stale := now.Add(-30 * time.Hour)
	tracker.SetLastCustomerMessageAt(&stale)
	assert.Equal(t, convo.WindowLocked, tracker.State())

	tracker.ObserveCustomerMessage(now.Add(-time.Minute))
	assert.Equal(t, convo.WindowOpen, tracker.State())
}

// An out-of-order older row must not move the window backwards.
func TestWindowIgnoresOlderObservation(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tracker := convo.NewWindowTracker(func() time.Time { return now })

	tracker.ObserveCustomerMessage(now.Add(-time.Hour))
	tracker.ObserveCustomerMessage(now.Add(-40 * time.Hour))

	assert.Equal(t, convo.WindowOpen, tracker.State())
}

func TestWindowStateAdvancesWithClock(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tracker := convo.NewWindowTracker(func() time.Time { return now })

	last := now
	tracker.SetLastCustomerMessageAt(&last)
	assert.Equal(t, convo.WindowOpen, tracker.State())

	now = now.Add(23 * time.Hour)
	assert.Equal(t, convo.WindowLocked, tracker.State())
}
