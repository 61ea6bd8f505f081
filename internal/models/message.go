package models

import "gorm.io/gorm"

// Message kinds. Human is the customer; AI is the automated agent;
// Member is a staff reply; Note is an internal-only annotation.
const (
	KindHuman  = "human"
	KindAI     = "ai"
	KindMember = "member"
	KindNote   = "note"
)

// Origin tags distinguishing how an outbound row was produced.
// A human-looking row with OriginCRM was actually sent by staff.
const (
	OriginCRM  = "crm"
	OriginNote = "note"
)

// Message represents one persisted entry of a conversation.
// The embedded gorm.Model provides ID, CreatedAt, UpdatedAt, and DeletedAt;
// ID is store-assigned and monotonically increasing, and it is the only
// valid chronological ordering — CreatedAt may coincide across rows.
type Message struct {
	gorm.Model

	// SessionID is the identifier of the conversation this message belongs to.
	SessionID string `gorm:"type:text;not null;index:idx_session_msg" json:"session_id"`
	// Kind classifies the author: human, ai, member or note.
	Kind string `gorm:"type:text;not null" json:"kind"`
	// Origin optionally reclassifies the row (e.g. "crm" for staff-sent).
	Origin string `gorm:"type:text" json:"origin,omitempty"`
	// Content is either literal text or the URL of an uploaded asset.
	Content string `gorm:"type:text;not null" json:"content"`
	// Tags carries the media flags and the optional reply back-reference.
	Tags TagSet `gorm:"type:jsonb" json:"tags"`
}

// IsCustomer reports whether the row is a genuine inbound customer message,
// i.e. kind human and not reclassified by a staff origin.
func (m *Message) IsCustomer() bool {
	return m.Kind == KindHuman && m.Origin == ""
}
