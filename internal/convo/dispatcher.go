package convo

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"crmconsole/backend/internal/models"
)

// ErrTemplateRequired is returned when a free-form send is attempted while
// the session window is locked. It is a local precondition, not a transport
// failure: nothing was persisted and nothing was sent.
var ErrTemplateRequired = errors.New("session window closed, a template must be selected")

// ErrEmptyPayload is returned when a send request carries neither text nor
// media nor a template.
var ErrEmptyPayload = errors.New("send request has no content")

// Dispatcher turns composed send requests into persisted rows and advisory
// webhook notifications. Side effects are strictly ordered: the store write
// always precedes any external notification, and a failed write aborts the
// send with no partial state.
type Dispatcher struct {
	store    Store
	notifier Notifier
}

// NewDispatcher wires a dispatcher to its collaborators.
func NewDispatcher(store Store, notifier Notifier) *Dispatcher {
	return &Dispatcher{store: store, notifier: notifier}
}

// Send dispatches one composed payload under the given window state.
// The persisted row is returned so callers can reflect it immediately; the
// live insert event will still arrive through the feed and is deduplicated
// by the log.
func (d *Dispatcher) Send(req models.SendRequest, state WindowState) (*models.Message, error) {
	if state == WindowLocked && !req.IsTemplate() {
		return nil, ErrTemplateRequired
	}
	if req.IsTemplate() {
		return d.sendTemplate(req)
	}
	if req.Text == "" && req.MediaURL == "" {
		return nil, ErrEmptyPayload
	}

	msg := &models.Message{
		SessionID: req.SessionID,
		Kind:      models.KindMember,
		Origin:    models.OriginCRM,
		Content:   req.Text,
	}
	if req.MediaURL != "" {
		msg.Content = req.MediaURL
		msg.Tags = req.MediaTags
	}

	if err := d.store.AppendMessage(msg); err != nil {
		return nil, fmt.Errorf("persist outbound message: %w", err)
	}

	d.notifier.NotifyReply(req.SessionID, msg.Content, msg.CreatedAt)
	d.pause(req.SessionID)
	return msg, nil
}

// SendNote persists an internal-only annotation. Notes never leave the
// console: no webhook, no pause, no window check.
func (d *Dispatcher) SendNote(sessionID, text string) (*models.Message, error) {
	if text == "" {
		return nil, ErrEmptyPayload
	}
	msg := &models.Message{
		SessionID: sessionID,
		Kind:      models.KindNote,
		Origin:    models.OriginNote,
		Content:   text,
	}
	if err := d.store.AppendMessage(msg); err != nil {
		return nil, fmt.Errorf("persist note: %w", err)
	}
	return msg, nil
}

func (d *Dispatcher) sendTemplate(req models.SendRequest) (*models.Message, error) {
	tpl, err := d.store.GetTemplate(req.Template)
	if err != nil {
		return nil, fmt.Errorf("resolve template %q: %w", req.Template, err)
	}

	msg := &models.Message{
		SessionID: req.SessionID,
		Kind:      models.KindMember,
		Origin:    models.OriginCRM,
		Content:   tpl.Render(req.Variables),
	}
	if err := d.store.AppendMessage(msg); err != nil {
		return nil, fmt.Errorf("persist template message: %w", err)
	}

	d.notifier.NotifyTemplate(tpl.Name, req.SessionID)
	d.pause(req.SessionID)
	return msg, nil
}

// pause marks the conversation as taken over by staff. The message is
// already durable at this point, so a failed update is logged and swallowed.
func (d *Dispatcher) pause(sessionID string) {
	err := d.store.UpdateConversation(sessionID, map[string]interface{}{"is_paused": true})
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Failed to pause conversation after dispatch")
	}
}
