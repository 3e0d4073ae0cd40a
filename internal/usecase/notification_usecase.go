// Package usecase defines the application's use case interfaces and the
// input/output types shared with the delivery layer.
package usecase

import (
	"context"
	"time"

	"sahara/internal/domain/entity"
)

// TargetKind enumerates the supported targeting rules.
type TargetKind string

// Targeting rule kinds.
const (
	TargetKindSpecific  TargetKind = "specific"
	TargetKindMultiple  TargetKind = "multiple"
	TargetKindBroadcast TargetKind = "broadcast"
	TargetKindFiltered  TargetKind = "filtered"
)

// Target is the rule selecting which users receive a notification.
// It is constructed per call and never persisted.
type Target struct {
	Kind         TargetKind `json:"kind"`
	PhoneNumber  string     `json:"phone_number,omitempty"`  // for specific
	PhoneNumbers []string   `json:"phone_numbers,omitempty"` // for multiple
	FilterField  string     `json:"filter_field,omitempty"`  // for filtered
	FilterValue  string     `json:"filter_value,omitempty"`  // for filtered
}

// TargetUser targets a single user by phone number.
func TargetUser(phoneNumber string) Target {
	return Target{Kind: TargetKindSpecific, PhoneNumber: phoneNumber}
}

// TargetUsers targets an explicit list of users by phone number.
func TargetUsers(phoneNumbers ...string) Target {
	return Target{Kind: TargetKindMultiple, PhoneNumbers: phoneNumbers}
}

// TargetBroadcast targets every user in the directory.
func TargetBroadcast() Target {
	return Target{Kind: TargetKindBroadcast}
}

// TargetFiltered targets users whose named attribute equals the given value.
func TargetFiltered(field, value string) Target {
	return Target{Kind: TargetKindFiltered, FilterField: field, FilterValue: value}
}

// NotificationInput is the operator-supplied message for one fan-out.
type NotificationInput struct {
	Title    string                      `json:"title"`
	Body     string                      `json:"body"`
	Data     map[string]string           `json:"data,omitempty"`
	Category entity.NotificationCategory `json:"type,omitempty"` // defaults to info
}

// Resolution is the read-only outcome of resolving a targeting rule.
type Resolution struct {
	MatchedUsers []string `json:"matched_users"` // phone numbers with a profile
	Tokens       []string `json:"tokens"`        // deduplicated device tokens across all matches
	MissedUsers  int      `json:"missed_users"`  // explicit lookups that found no profile
}

// Outcome reports how many per-user records a fan-out persisted.
// Push delivery failures are not reflected here; the in-app record store is
// the source of truth for "was the user notified".
type Outcome struct {
	SuccessCount int `json:"success_count"`
	FailedCount  int `json:"failed_count"`
}

// NotificationUsecase defines the operator-facing fan-out use cases.
type NotificationUsecase interface {
	// Resolve computes the audience of a targeting rule without side effects.
	Resolve(ctx context.Context, target Target) (*Resolution, error)

	// Send persists one notification record per targeted user and then
	// delivers device pushes best-effort. Record persistence failures are
	// surfaced; push failures are logged and swallowed.
	Send(ctx context.Context, target Target, input NotificationInput) (*Outcome, error)

	// Schedule queues a notification for future delivery to one user and
	// returns the scheduled record's ID.
	Schedule(ctx context.Context, phoneNumber string, input NotificationInput, at time.Time) (string, error)
}
