package repository

import (
	"context"

	"sahara/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for notification persistence.
var (
	// ErrNotificationNotFound is returned when a record lookup by ID misses.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrBatchTooLarge is returned when a single commit exceeds the store's
	// batch limit. Callers split before committing, so reaching it is a bug.
	ErrBatchTooLarge = errors.New("batch exceeds store limit")
)

// NotificationSubscription is a live view over one user's notification
// records. Each value on Updates carries the full current state, never an
// incremental diff; consumers re-derive ordering and counts on every update.
type NotificationSubscription interface {
	// Updates delivers the complete record set after every change.
	// The channel is closed after Cancel or on a terminal error.
	Updates() <-chan []*entity.UserNotification

	// Err returns the terminal error, if any, once Updates is closed.
	Err() error

	// Cancel releases the subscription. No background work continues
	// after Cancel returns.
	Cancel()
}

// NotificationRepository owns the notification record store.
type NotificationRepository interface {
	// CreateBatch persists the given records in one atomic commit.
	// len(records) must not exceed BatchLimit; callers split larger sets
	// into sequential commits.
	CreateBatch(ctx context.Context, records []*entity.UserNotification) error

	// FindByUser retrieves all records owned by the phone number.
	FindByUser(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error)

	// FindUnreadByUser retrieves the records owned by the phone number
	// that have not been read.
	FindUnreadByUser(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error)

	// MarkRead transitions one record to read and stamps its read timestamp.
	// Marking an already-read record is a no-op; the original timestamp is
	// preserved. Returns ErrNotificationNotFound for unknown IDs.
	MarkRead(ctx context.Context, notificationID string) error

	// MarkReadBatch transitions the given records to read in one atomic
	// commit. len(ids) must not exceed BatchLimit.
	MarkReadBatch(ctx context.Context, ids []string) error

	// Subscribe opens a live view over the user's records.
	Subscribe(ctx context.Context, phoneNumber string) (NotificationSubscription, error)

	// BatchLimit reports the store's maximum record count per atomic commit.
	BatchLimit() int
}
