// Package impl contains the concrete implementations of the use case layer.
package impl

import (
	"context"
	"log/slog"
	"time"

	"sahara/config"
	deliverycontext "sahara/internal/delivery/context"
	"sahara/internal/domain/entity"
	domainerrors "sahara/internal/domain/errors"
	"sahara/internal/domain/repository"
	"sahara/internal/domain/service"
	"sahara/internal/usecase"

	"github.com/pkg/errors"
)

// allowedFilterFields restricts attribute targeting to the demographic tags
// the registration form actually collects.
var allowedFilterFields = map[string]struct{}{
	"disabilityType": {},
	"state":          {},
	"district":       {},
}

type fanoutService struct {
	logger           *slog.Logger
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	scheduleRepo     repository.ScheduleRepository
	pushSvc          service.PushService
	publisher        service.EventPublisher
	scanPageSize     int
}

// NewNotificationService creates the fan-out use case instance.
func NewNotificationService(
	logger *slog.Logger,
	cfg *config.Config,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	scheduleRepo repository.ScheduleRepository,
	pushSvc service.PushService,
	publisher service.EventPublisher,
) usecase.NotificationUsecase {
	return &fanoutService{
		logger:           logger,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		scheduleRepo:     scheduleRepo,
		pushSvc:          pushSvc,
		publisher:        publisher,
		scanPageSize:     cfg.Notification.ScanPageSize,
	}
}

// Resolve computes the matched user set and deduplicated token set for a
// targeting rule. Read-only; absent profiles are tolerated and counted.
func (s *fanoutService) Resolve(ctx context.Context, target usecase.Target) (*usecase.Resolution, error) {
	res := &usecase.Resolution{
		MatchedUsers: []string{},
		Tokens:       []string{},
	}
	seen := make(map[string]struct{})

	match := func(user *entity.UserProfile) {
		res.MatchedUsers = append(res.MatchedUsers, user.PhoneNumber)
		for _, token := range user.PushTokens {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			res.Tokens = append(res.Tokens, token)
		}
	}

	switch target.Kind {
	case usecase.TargetKindSpecific:
		if target.PhoneNumber == "" {
			return nil, domainerrors.ErrInvalidTarget
		}
		user, err := s.userRepo.FindByPhone(ctx, target.PhoneNumber)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				res.MissedUsers++

				return res, nil
			}

			return nil, errors.Wrap(err, "failed to look up target user")
		}
		match(user)

	case usecase.TargetKindMultiple:
		if len(target.PhoneNumbers) == 0 {
			return nil, domainerrors.ErrInvalidTarget
		}
		// Repeating a phone number in the request must not repeat the
		// notification.
		seenPhones := make(map[string]struct{}, len(target.PhoneNumbers))
		for _, phone := range target.PhoneNumbers {
			if _, ok := seenPhones[phone]; ok {
				continue
			}
			seenPhones[phone] = struct{}{}
			user, err := s.userRepo.FindByPhone(ctx, phone)
			if err != nil {
				// Partial misses never abort the batch.
				if !errors.Is(err, repository.ErrUserNotFound) {
					s.logger.Warn("target lookup failed",
						slog.String("phone_number", phone),
						slog.Any("error", err),
					)
				}
				res.MissedUsers++

				continue
			}
			match(user)
		}

	case usecase.TargetKindBroadcast:
		err := s.userRepo.ForEachUser(ctx, s.scanPageSize, func(user *entity.UserProfile) error {
			match(user)

			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to enumerate user directory")
		}

	case usecase.TargetKindFiltered:
		if target.FilterField == "" || target.FilterValue == "" {
			return nil, domainerrors.ErrInvalidTarget
		}
		if _, ok := allowedFilterFields[target.FilterField]; !ok {
			return nil, domainerrors.ErrFilterFieldNotAllowed.WithDetails(target.FilterField)
		}
		users, err := s.userRepo.FindByAttribute(ctx, target.FilterField, target.FilterValue)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query filtered users")
		}
		for _, user := range users {
			match(user)
		}

	default:
		return nil, domainerrors.ErrInvalidTarget
	}

	return res, nil
}

// Send resolves the target, persists one record per matched user in batched
// commits, then delivers device pushes best-effort.
func (s *fanoutService) Send(ctx context.Context, target usecase.Target, input usecase.NotificationInput) (*usecase.Outcome, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}

	res, err := s.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	// A single-user send to an unknown phone number is an operator mistake,
	// not an empty audience.
	if target.Kind == usecase.TargetKindSpecific && len(res.MatchedUsers) == 0 {
		return nil, domainerrors.ErrRecipientNotFound
	}

	outcome, err := s.write(ctx, res.MatchedUsers, input, target)
	if err != nil {
		return nil, err
	}
	outcome.FailedCount += res.MissedUsers

	// Persist-then-dispatch: in-app records stay authoritative even when the
	// push channel is down.
	s.dispatch(ctx, res.Tokens, input)

	s.publishEvent(ctx, target, input, outcome, len(res.Tokens))

	return outcome, nil
}

// write persists one record per matched user, splitting into sequential
// commits bounded by the store's batch limit. A commit failure rejects the
// operation; earlier commits are not rolled back.
func (s *fanoutService) write(ctx context.Context, matched []string, input usecase.NotificationInput, target usecase.Target) (*usecase.Outcome, error) {
	outcome := &usecase.Outcome{}

	records := make([]*entity.UserNotification, 0, len(matched))
	for _, phone := range matched {
		if phone == "" {
			// Malformed profile; skip without aborting the rest.
			outcome.FailedCount++

			continue
		}
		records = append(records, &entity.UserNotification{
			PhoneNumber:    phone,
			Title:          input.Title,
			Body:           input.Body,
			Data:           input.Data,
			Category:       input.Category,
			IsRead:         false,
			TargetType:     targetTypeOf(target.Kind),
			FilterCriteria: filterCriteriaOf(target),
		})
	}

	limit := s.notificationRepo.BatchLimit()
	for i := 0; i < len(records); i += limit {
		end := min(i+limit, len(records))
		batch := records[i:end]

		if err := s.notificationRepo.CreateBatch(ctx, batch); err != nil {
			return nil, domainerrors.NewStoreWriteError(err, "notification batch commit failed")
		}
		outcome.SuccessCount += len(batch)
	}

	return outcome, nil
}

// dispatch delivers the deduplicated token set in provider-sized chunks.
// Failed chunks are logged and skipped; later chunks are still attempted.
func (s *fanoutService) dispatch(ctx context.Context, tokens []string, input usecase.NotificationInput) {
	if s.pushSvc == nil || len(tokens) == 0 {
		return
	}

	limit := s.pushSvc.ChunkLimit()
	for i := 0; i < len(tokens); i += limit {
		end := min(i+limit, len(tokens))
		chunk := tokens[i:end]

		if err := s.pushSvc.SendChunk(ctx, chunk, input.Title, input.Body, input.Data); err != nil {
			s.logger.Warn("push chunk delivery failed",
				slog.Int("chunk_size", len(chunk)),
				slog.Any("error", err),
			)
		}
	}
}

// publishEvent emits the fan-out audit event. Best-effort.
func (s *fanoutService) publishEvent(ctx context.Context, target usecase.Target, input usecase.NotificationInput, outcome *usecase.Outcome, tokenCount int) {
	if s.publisher == nil {
		return
	}

	event := &service.FanoutEvent{
		RequestID:    deliverycontext.GetRequestIDFromContext(ctx),
		TargetType:   string(targetTypeOf(target.Kind)),
		FilterField:  target.FilterField,
		FilterValue:  target.FilterValue,
		Title:        input.Title,
		SuccessCount: outcome.SuccessCount,
		FailedCount:  outcome.FailedCount,
		TokenCount:   tokenCount,
	}
	if err := s.publisher.PublishFanoutEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish fan-out event", slog.Any("error", err))
	}
}

// Schedule queues a notification for future delivery to one user.
func (s *fanoutService) Schedule(ctx context.Context, phoneNumber string, input usecase.NotificationInput, at time.Time) (string, error) {
	if err := normalizeInput(&input); err != nil {
		return "", err
	}
	if phoneNumber == "" {
		return "", domainerrors.ErrInvalidTarget
	}
	if at.Before(time.Now()) {
		return "", domainerrors.ErrScheduleInPast
	}

	id, err := s.scheduleRepo.CreateScheduled(ctx, &entity.ScheduledNotification{
		PhoneNumber: phoneNumber,
		Title:       input.Title,
		Body:        input.Body,
		Data:        input.Data,
		Category:    input.Category,
		ScheduledAt: at,
		Status:      entity.ScheduledStatusPending,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create scheduled notification")
	}

	return id, nil
}

// normalizeInput applies the category default and rejects unknown categories.
func normalizeInput(input *usecase.NotificationInput) error {
	if input.Category == "" {
		input.Category = entity.CategoryInfo
	}
	if !input.Category.Valid() {
		return domainerrors.ErrInvalidCategory.WithDetails(string(input.Category))
	}

	return nil
}

func targetTypeOf(kind usecase.TargetKind) entity.TargetType {
	switch kind {
	case usecase.TargetKindBroadcast:
		return entity.TargetTypeBroadcast
	case usecase.TargetKindFiltered:
		return entity.TargetTypeFiltered
	default:
		return entity.TargetTypeSpecific
	}
}

func filterCriteriaOf(target usecase.Target) *entity.FilterCriteria {
	if target.Kind != usecase.TargetKindFiltered {
		return nil
	}

	return &entity.FilterCriteria{Field: target.FilterField, Value: target.FilterValue}
}
