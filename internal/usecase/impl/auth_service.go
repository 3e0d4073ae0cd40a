package impl

import (
	"context"
	"log/slog"

	"sahara/config"
	domainerrors "sahara/internal/domain/errors"
	"sahara/internal/domain/service"
	"sahara/internal/usecase"

	"github.com/pkg/errors"
)

type authService struct {
	logger   *slog.Logger
	cfg      *config.Config
	hasher   service.PinHasher
	tokenSvc service.TokenService
}

// NewAuthService creates the operator authentication use case instance.
func NewAuthService(
	logger *slog.Logger,
	cfg *config.Config,
	hasher service.PinHasher,
	tokenSvc service.TokenService,
) (usecase.AuthUsecase, error) {
	if cfg.Admin == nil || cfg.Admin.PinHash == "" {
		return nil, errors.New("admin pin hash must be configured")
	}

	return &authService{
		logger:   logger,
		cfg:      cfg,
		hasher:   hasher,
		tokenSvc: tokenSvc,
	}, nil
}

// Login verifies the PIN against the configured hash and issues admin tokens.
func (s *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	if input == nil || input.Pin == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("pin is required")
	}

	if !s.hasher.Check(input.Pin, s.cfg.Admin.PinHash) {
		s.logger.Warn("operator login rejected")

		return nil, domainerrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.tokenSvc.GenerateTokens(s.cfg.Admin.OperatorID, []string{"admin"})
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue tokens")
	}

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
