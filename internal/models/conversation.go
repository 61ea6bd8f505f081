package models

import (
	"time"

	"github.com/lib/pq"
)

// Conversation holds per-customer state for one chat session.
// It is created on the first inbound customer message and never deleted by
// the engine. IsPaused is set once staff or automation replied and cleared
// again when the customer sends (the ingestion boundary owns the flip-back).
type Conversation struct {
	// SessionID is the unique identifier of the conversation (the
	// customer's messaging address).
	SessionID string `gorm:"primaryKey" json:"session_id"`
	// Name is the display name of the contact.
	Name string `gorm:"type:text" json:"name"`
	// Labels are free-form contact labels managed by the console.
	Labels pq.StringArray `gorm:"type:text[]" json:"labels"`
	// LastCustomerMessageAt is the timestamp of the last genuine inbound
	// customer row; it drives the session-window computation.
	LastCustomerMessageAt *time.Time `json:"last_customer_message_at"`
	// IsPaused is true while the automation should stay silent because a
	// staff member or template took over the conversation.
	IsPaused bool `json:"is_paused"`
	// LastViewedAt records when an agent last opened the conversation.
	LastViewedAt *time.Time `json:"last_viewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
