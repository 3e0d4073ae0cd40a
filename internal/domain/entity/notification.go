// Package entity contains the core business objects of the project.
package entity

import (
	"time"
)

// NotificationCategory classifies the severity of a notification.
type NotificationCategory string

// Notification categories. CategoryInfo is the default when unspecified.
const (
	CategoryInfo    NotificationCategory = "info"
	CategorySuccess NotificationCategory = "success"
	CategoryWarning NotificationCategory = "warning"
	CategoryError   NotificationCategory = "error"
)

// Valid reports whether the category is one of the known values.
func (c NotificationCategory) Valid() bool {
	switch c {
	case CategoryInfo, CategorySuccess, CategoryWarning, CategoryError:
		return true
	}

	return false
}

// TargetType records how a notification was targeted at its owner.
type TargetType string

// Targeting classifications persisted on every notification record.
const (
	TargetTypeSpecific  TargetType = "specific"
	TargetTypeBroadcast TargetType = "broadcast"
	TargetTypeFiltered  TargetType = "filtered"
)

// FilterCriteria is the attribute equality filter used for a filtered send.
type FilterCriteria struct {
	Field string `json:"field" firestore:"field"` // Profile attribute name, e.g. disabilityType or state.
	Value string `json:"value" firestore:"value"` // Required attribute value.
}

// UserNotification is one in-app notification addressed to exactly one user.
// Records are append-only: after creation only the read state may change.
type UserNotification struct {
	ID             string               `json:"id" firestore:"-"`                                     // Document ID assigned by the record store.
	PhoneNumber    string               `json:"phone_number" firestore:"phoneNumber"`                 // Owner of the record.
	Title          string               `json:"title" firestore:"title"`                              // Short headline shown in the inbox.
	Body           string               `json:"body" firestore:"body"`                                // Longer message body.
	Data           map[string]string    `json:"data,omitempty" firestore:"data"`                      // Structured payload for client-side deep linking.
	Category       NotificationCategory `json:"type" firestore:"type"`                                // Severity tag; defaults to info.
	IsRead         bool                 `json:"is_read" firestore:"isRead"`                           // Read flag; false on creation.
	CreatedAt      time.Time            `json:"created_at" firestore:"createdAt,serverTimestamp"`     // Server-assigned creation timestamp; immutable.
	ReadAt         *time.Time           `json:"read_at,omitempty" firestore:"readAt"`                 // Set exactly once, when the record transitions to read.
	TargetType     TargetType           `json:"target_type" firestore:"targetType"`                   // How this record was targeted.
	FilterCriteria *FilterCriteria      `json:"filter_criteria,omitempty" firestore:"filterCriteria"` // Present only for filtered sends.
}

// ScheduledStatus is the lifecycle state of a scheduled notification.
type ScheduledStatus string

// Scheduled notification states.
const (
	ScheduledStatusPending ScheduledStatus = "pending"
	ScheduledStatusSent    ScheduledStatus = "sent"
	ScheduledStatusFailed  ScheduledStatus = "failed"
)

// ScheduledNotification is a notification queued for future delivery.
// A scheduler loop picks up due pending records and funnels them through
// the regular fan-out path.
type ScheduledNotification struct {
	ID          string               `json:"id" firestore:"-"`                                 // Document ID assigned by the record store.
	PhoneNumber string               `json:"phone_number" firestore:"phoneNumber"`             // Target user for the delivery.
	Title       string               `json:"title" firestore:"title"`
	Body        string               `json:"body" firestore:"body"`
	Data        map[string]string    `json:"data,omitempty" firestore:"data"`
	Category    NotificationCategory `json:"type" firestore:"type"`
	ScheduledAt time.Time            `json:"scheduled_at" firestore:"scheduledTime"`           // Earliest delivery time.
	Status      ScheduledStatus      `json:"status" firestore:"status"`                        // pending until dispatched.
	CreatedAt   time.Time            `json:"created_at" firestore:"createdAt,serverTimestamp"` // Server-assigned creation timestamp.
}
