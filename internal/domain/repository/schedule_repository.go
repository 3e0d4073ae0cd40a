package repository

import (
	"context"
	"time"

	"sahara/internal/domain/entity"
)

// ScheduleRepository persists notifications queued for future delivery.
type ScheduleRepository interface {
	// CreateScheduled persists a pending scheduled notification and returns
	// its assigned ID.
	CreateScheduled(ctx context.Context, scheduled *entity.ScheduledNotification) (string, error)

	// FindDue retrieves up to limit pending notifications whose scheduled
	// time is at or before now, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.ScheduledNotification, error)

	// UpdateScheduledStatus records the outcome of a dispatch attempt.
	UpdateScheduledStatus(ctx context.Context, id string, status entity.ScheduledStatus) error
}
