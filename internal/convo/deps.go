package convo

import (
	"context"
	"time"

	"crmconsole/backend/internal/models"
)

// Store is the slice of the message store the engine depends on. All
// persistence is delegated here; the engine owns only in-memory state.
type Store interface {
	// AppendMessage persists an outbound row; the store assigns ID and
	// CreatedAt and emits the matching insert event on the live channel.
	AppendMessage(msg *models.Message) error
	// ListBySession returns the full history ordered by ascending ID.
	ListBySession(sessionID string) ([]models.Message, error)
	// GetConversation returns the conversation row, or nil when the
	// customer has never written.
	GetConversation(sessionID string) (*models.Conversation, error)
	// UpdateConversation applies a partial update (isPaused, lastViewedAt).
	UpdateConversation(sessionID string, updates map[string]interface{}) error
	// GetTemplate resolves a template by name, body included.
	GetTemplate(name string) (*models.Template, error)
}

// Notifier delivers advisory notifications to the external automation.
// Calls return immediately; delivery is best-effort, failures are logged by
// the implementation and never surface here. Implementations must not touch
// conversation state.
type Notifier interface {
	NotifyReply(sessionID, message string, ts time.Time)
	NotifyTemplate(template, sessionID string)
}

// LiveFeed subscribes to the ordered insert-event stream of one
// conversation. Delivery is at least once; the returned cancel function
// tears the subscription down and eventually closes the channel.
type LiveFeed interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan models.Event, func(), error)
}
