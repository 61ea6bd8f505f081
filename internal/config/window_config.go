package config

import "time"

const (
	// Session window
	// The messaging provider allows free-form replies for 24h after the
	// customer's last inbound message.
	SessionWindowDuration = 24 * time.Hour
	// ProviderClockOffset is subtracted from lastCustomerMessageAt before
	// the window check. The provider's internal clock closes windows 2h
	// earlier than ours; keep the constant as-is, do not "fix" it.
	ProviderClockOffset = 2 * time.Hour
	// WindowPollInterval bounds how stale a cached window state may be.
	WindowPollInterval = 60 * time.Second

	// Outbound delivery
	WebhookTimeout = 10 * time.Second
	// LiveEventBuffer sizes both the storage subscriber channel and the
	// per-session update stream.
	LiveEventBuffer = 64
)
