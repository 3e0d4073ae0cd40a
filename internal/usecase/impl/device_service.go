package impl

import (
	"context"
	"log/slog"

	domainerrors "sahara/internal/domain/errors"
	"sahara/internal/domain/repository"
	"sahara/internal/usecase"

	"github.com/pkg/errors"
)

type deviceService struct {
	logger   *slog.Logger
	userRepo repository.UserRepository
}

// NewDeviceService creates the device registration use case instance.
func NewDeviceService(logger *slog.Logger, userRepo repository.UserRepository) usecase.DeviceUsecase {
	return &deviceService{
		logger:   logger,
		userRepo: userRepo,
	}
}

// RegisterPushToken adds a device token to the user's token set. The token
// list stays duplicate-free because the store applies a set union, never a
// wholesale overwrite.
func (s *deviceService) RegisterPushToken(ctx context.Context, phoneNumber, token string) error {
	if phoneNumber == "" || token == "" {
		return domainerrors.ErrValidationFailed.WithDetails("phone number and token are required")
	}

	if _, err := s.userRepo.FindByPhone(ctx, phoneNumber); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrRecipientNotFound
		}

		return errors.Wrap(err, "failed to look up user")
	}

	if err := s.userRepo.AddPushToken(ctx, phoneNumber, token); err != nil {
		return errors.Wrap(err, "failed to register push token")
	}

	s.logger.Debug("push token registered", slog.String("phone_number", phoneNumber))

	return nil
}
