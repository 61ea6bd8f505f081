// Package convo implements the conversation engine: the in-memory message
// log, the echo reconciliation filter, the realtime merger, the image
// grouper, the session-window tracker and the outbound dispatcher, tied
// together by an explicit per-conversation session lifecycle.
package convo

import "crmconsole/backend/internal/models"

// The upstream automation transcribes customer media uploads and sometimes
// mirrors the transcription back as an extra plain-text human row right
// after the genuine media row. The filter suppresses that echo without
// touching legitimate follow-up customer text.
//
// The suppression state is one bit: whether the last emitted row still owes
// us an echo. The same transition is used for the bulk history pass and for
// each live event, so merging incrementally always equals filtering the
// full history from scratch.

// isEcho reports whether a row must be discarded given the current
// suppression state: a plain human row arriving while an echo is pending.
// A media row never suppresses itself.
func isEcho(echoPending bool, row models.Message) bool {
	return echoPending && row.Kind == models.KindHuman && !row.Tags.HasEchoSource()
}

// nextEchoState returns the suppression state after a row was handled.
// Emitting a media row arms the state; anything else (including a
// discarded echo) disarms it, so at most one row per media row is dropped.
func nextEchoState(row models.Message, discarded bool) bool {
	if discarded {
		return false
	}
	return row.Tags.HasEchoSource()
}

// FilterHistory applies the reconciliation filter to a bulk-loaded history
// in a single forward pass. The input must be ordered by ascending ID.
func FilterHistory(rows []models.Message) []models.Message {
	out := make([]models.Message, 0, len(rows))
	echoPending := false
	for _, row := range rows {
		discarded := isEcho(echoPending, row)
		if !discarded {
			out = append(out, row)
		}
		echoPending = nextEchoState(row, discarded)
	}
	return out
}
