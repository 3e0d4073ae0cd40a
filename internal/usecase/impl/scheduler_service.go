package impl

import (
	"context"
	"log/slog"
	"time"

	"sahara/internal/domain/entity"
	"sahara/internal/domain/repository"
	"sahara/internal/usecase"

	"github.com/pkg/errors"
)

type schedulerService struct {
	logger       *slog.Logger
	scheduleRepo repository.ScheduleRepository
	notifier     usecase.NotificationUsecase
}

// NewSchedulerService creates the deferred-delivery use case instance.
func NewSchedulerService(
	logger *slog.Logger,
	scheduleRepo repository.ScheduleRepository,
	notifier usecase.NotificationUsecase,
) usecase.SchedulerUsecase {
	return &schedulerService{
		logger:       logger,
		scheduleRepo: scheduleRepo,
		notifier:     notifier,
	}
}

// DispatchDue funnels due pending notifications through the regular fan-out
// path. One failed dispatch marks its record failed and does not stop the rest.
func (s *schedulerService) DispatchDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.scheduleRepo.FindDue(ctx, now, limit)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch due notifications")
	}

	dispatched := 0
	for _, scheduled := range due {
		input := usecase.NotificationInput{
			Title:    scheduled.Title,
			Body:     scheduled.Body,
			Data:     scheduled.Data,
			Category: scheduled.Category,
		}

		status := entity.ScheduledStatusSent
		if _, err := s.notifier.Send(ctx, usecase.TargetUser(scheduled.PhoneNumber), input); err != nil {
			s.logger.Warn("scheduled dispatch failed",
				slog.String("scheduled_id", scheduled.ID),
				slog.String("phone_number", scheduled.PhoneNumber),
				slog.Any("error", err),
			)
			status = entity.ScheduledStatusFailed
		} else {
			dispatched++
		}

		if err := s.scheduleRepo.UpdateScheduledStatus(ctx, scheduled.ID, status); err != nil {
			s.logger.Warn("failed to update scheduled status",
				slog.String("scheduled_id", scheduled.ID),
				slog.Any("error", err),
			)
		}
	}

	return dispatched, nil
}
