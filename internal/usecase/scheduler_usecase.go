package usecase

import (
	"context"
	"time"
)

// SchedulerUsecase drains due scheduled notifications into the fan-out path.
type SchedulerUsecase interface {
	// DispatchDue sends every pending notification due at or before now,
	// up to limit, and returns how many were dispatched successfully.
	DispatchDue(ctx context.Context, now time.Time, limit int) (int, error)
}
