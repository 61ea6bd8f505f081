// Package notify delivers advisory notifications to the external
// automation. Delivery is fire-and-forget: the persisted message is the
// durable record, the notification is best-effort and never retried.
package notify

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"crmconsole/backend/internal/config"
)

// WebhookNotifier posts to the automation's reply and template-dispatch
// endpoints. Calls return immediately; the HTTP round trip runs in its own
// goroutine, failures are logged and swallowed, and the response body is
// discarded. It never touches conversation state.
type WebhookNotifier struct {
	client      *resty.Client
	replyURL    string
	templateURL string
}

// NewWebhookNotifier builds a notifier. Empty URLs disable the respective
// endpoint.
func NewWebhookNotifier(replyURL, templateURL string) *WebhookNotifier {
	return &WebhookNotifier{
		client:      resty.New().SetTimeout(config.WebhookTimeout),
		replyURL:    replyURL,
		templateURL: templateURL,
	}
}

// NotifyReply announces a free-form staff reply to the automation.
func (n *WebhookNotifier) NotifyReply(sessionID, message string, ts time.Time) {
	if n.replyURL == "" {
		return
	}
	payload := map[string]interface{}{
		"sessionId": sessionID,
		"message":   message,
		"timestamp": ts.UTC().Format(time.RFC3339),
	}
	go n.post(n.replyURL, payload, sessionID)
}

// NotifyTemplate announces a template dispatch to the automation.
func (n *WebhookNotifier) NotifyTemplate(template, sessionID string) {
	if n.templateURL == "" {
		return
	}
	payload := map[string]interface{}{
		"template":  template,
		"sessionId": sessionID,
	}
	go n.post(n.templateURL, payload, sessionID)
}

func (n *WebhookNotifier) post(url string, payload map[string]interface{}, sessionID string) {
	start := time.Now()
	resp, err := n.client.R().SetBody(payload).Post(url)
	if err != nil {
		log.Error().Err(err).
			Str("sessionID", sessionID).
			Str("url", url).
			Msg("Webhook delivery failed")
		return
	}
	if resp.IsError() {
		log.Warn().
			Str("sessionID", sessionID).
			Str("url", url).
			Int("status", resp.StatusCode()).
			Msg("Webhook delivery rejected")
		return
	}
	log.Debug().
		Str("sessionID", sessionID).
		Str("url", url).
		Int64("durationMs", time.Since(start).Milliseconds()).
		Msg("Webhook delivered")
}
