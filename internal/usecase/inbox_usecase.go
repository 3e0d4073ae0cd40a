package usecase

import (
	"context"

	"sahara/internal/domain/entity"
)

// InboxSubscription is a live view over one user's inbox, newest first.
// Every update carries the full sorted state, never a diff.
type InboxSubscription interface {
	Updates() <-chan []*entity.UserNotification
	Err() error
	Cancel()
}

// UnreadCountSubscription is a live unread-record count for one user.
type UnreadCountSubscription interface {
	Updates() <-chan int
	Err() error
	Cancel()
}

// InboxUsecase defines the beneficiary-facing inbox use cases.
type InboxUsecase interface {
	// List returns a snapshot of the user's inbox, newest first.
	List(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error)

	// UnreadCount returns the current number of unread records.
	UnreadCount(ctx context.Context, phoneNumber string) (int, error)

	// Subscribe opens a live inbox view. The caller must Cancel it.
	Subscribe(ctx context.Context, phoneNumber string) (InboxSubscription, error)

	// SubscribeUnreadCount opens a live unread-count view.
	SubscribeUnreadCount(ctx context.Context, phoneNumber string) (UnreadCountSubscription, error)

	// MarkAsRead marks one record read. Idempotent: re-invoking on an
	// already-read record is a no-op.
	MarkAsRead(ctx context.Context, notificationID string) error

	// MarkAllAsRead marks every record that was unread at call start.
	// Records arriving during the operation may be missed.
	MarkAllAsRead(ctx context.Context, phoneNumber string) error

	// Delete removes a notification from the user's view. The record is
	// retained and marked read, matching the mobile app's behavior.
	Delete(ctx context.Context, notificationID string) error
}

// DeviceUsecase defines push token registration for beneficiary devices.
type DeviceUsecase interface {
	// RegisterPushToken adds a device token to the user's token set.
	// Registering the same token twice leaves a single entry.
	RegisterPushToken(ctx context.Context, phoneNumber, token string) error
}
