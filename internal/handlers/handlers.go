// Package handlers exposes the registry over a JSON API. Handlers stay
// thin: role checks for writes happen inside the store so the voice
// assistant and the API share one enforcement path.
package handlers

import (
	"autotrack/internal/registry"
	"autotrack/internal/session"
	"autotrack/internal/voice"

	"go.uber.org/zap"
)

type Handlers struct {
	Store    *registry.Store
	Sessions *session.Manager
	// VoiceDialer is nil when the assistant is not configured; the voice
	// endpoint then reports it unavailable.
	VoiceDialer voice.Dialer
	Log         *zap.Logger
}
