package service

import (
	"context"
)

// PushService defines the interface for device-level push delivery providers.
// Delivery is best-effort: a failed chunk is reported to the caller for
// logging but must never affect persisted in-app state.
type PushService interface {
	// SendChunk delivers one chunk of device tokens. len(tokens) must not
	// exceed ChunkLimit; providers reject oversized chunks.
	SendChunk(ctx context.Context, tokens []string, title, body string, data map[string]string) error

	// ChunkLimit reports the provider's maximum token count per request.
	ChunkLimit() int
}
