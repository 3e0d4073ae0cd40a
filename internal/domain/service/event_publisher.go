package service

import (
	"context"
)

// FanoutEvent is the audit record published after every notification fan-out.
type FanoutEvent struct {
	RequestID    string `json:"request_id,omitempty"` // For distributed tracing
	TargetType   string `json:"target_type"`          // specific, broadcast, or filtered
	FilterField  string `json:"filter_field,omitempty"`
	FilterValue  string `json:"filter_value,omitempty"`
	Title        string `json:"title"`
	SuccessCount int    `json:"success_count"` // Records persisted
	FailedCount  int    `json:"failed_count"`  // Users skipped or failed
	TokenCount   int    `json:"token_count"`   // Deduplicated device tokens dispatched to
}

// EventPublisher defines the interface for publishing fan-out audit events
// to a message queue for async consumers (reporting dashboards, alerting).
type EventPublisher interface {
	// PublishFanoutEvent publishes a fan-out outcome event. Best-effort;
	// callers log failures and continue.
	PublishFanoutEvent(ctx context.Context, event *FanoutEvent) error

	// Close releases any resources held by the publisher.
	Close() error
}
