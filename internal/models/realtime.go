package models

// Live notification event types delivered on the per-conversation channel.
const (
	EventInsert = "insert"
)

// Event is one live notification for a subscribed conversation. The channel
// delivers events at least once, in commit order; consumers must tolerate
// redelivery.
type Event struct {
	Type      string  `json:"type"`
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

// SendRequest is a composed outbound payload: free text, an uploaded media
// reference, or a selected template with its variable values.
type SendRequest struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text,omitempty"`
	MediaURL  string            `json:"media_url,omitempty"`
	MediaTags TagSet            `json:"media_tags,omitempty"`
	Template  string            `json:"template,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// IsTemplate reports whether the request selects a template.
func (r SendRequest) IsTemplate() bool { return r.Template != "" }
