package convo

import "crmconsole/backend/internal/models"

// MessageLog is the ordered in-memory message collection of one open
// conversation. It owns the reconciliation state, so appending live rows
// one by one produces exactly the same sequence as reloading the full
// history through FilterHistory. Not safe for concurrent use; the session
// serializes all access.
type MessageLog struct {
	rows        []models.Message
	echoPending bool
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Reload replaces the log contents with a bulk-loaded history, running the
// reconciliation filter over it. Rows must be ordered by ascending ID.
func (l *MessageLog) Reload(rows []models.Message) {
	l.rows = l.rows[:0]
	l.echoPending = false
	for _, row := range rows {
		l.Append(row)
	}
}

// Append merges one incoming live row into the log and reports whether it
// was accepted. Duplicates (at-least-once redelivery) and out-of-order rows
// are dropped without touching the reconciliation state; transcription
// echoes are dropped and consume the pending-echo bit.
func (l *MessageLog) Append(row models.Message) bool {
	if row.ID != 0 && l.Len() > 0 && row.ID <= l.rows[len(l.rows)-1].ID {
		return false
	}
	if isEcho(l.echoPending, row) {
		l.echoPending = nextEchoState(row, true)
		return false
	}
	l.rows = append(l.rows, row)
	l.echoPending = nextEchoState(row, false)
	return true
}

// Last returns the last emitted row, or nil when the log is empty.
func (l *MessageLog) Last() *models.Message {
	if len(l.rows) == 0 {
		return nil
	}
	return &l.rows[len(l.rows)-1]
}

// Len returns the number of emitted rows.
func (l *MessageLog) Len() int { return len(l.rows) }

// Snapshot returns a copy of the emitted rows in chronological order.
func (l *MessageLog) Snapshot() []models.Message {
	out := make([]models.Message, len(l.rows))
	copy(out, l.rows)
	return out
}
