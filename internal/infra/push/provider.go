// Package push contains the device push delivery providers.
package push

import (
	"context"
	"log/slog"

	"sahara/config"
	"sahara/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Provider names selectable through configuration.
const (
	ProviderExpo = "expo"
	ProviderFCM  = "fcm"
)

// fcmChunkCap is Firebase's documented multicast token limit per request.
const fcmChunkCap = 500

// noopPushService is a no-op implementation when device pushes are disabled.
type noopPushService struct {
	logger     *slog.Logger
	chunkLimit int
}

func (s *noopPushService) SendChunk(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	s.logger.Debug("[NoopPush] Push delivery disabled, skipping",
		slog.Int("token_count", len(tokens)),
	)

	return nil
}

func (s *noopPushService) ChunkLimit() int {
	return s.chunkLimit
}

// Params holds dependencies for PushService, injected by Fx.
type Params struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewPushService creates a PushService based on configuration.
func NewPushService(params Params) (service.PushService, error) {
	cfg := params.Config.Push
	logger := params.Logger

	// If push delivery is not configured, return a no-op service.
	if cfg == nil || cfg.Provider == "" {
		logger.Info("Push delivery not configured, using no-op service")

		return &noopPushService{logger: logger, chunkLimit: 100}, nil
	}

	switch cfg.Provider {
	case ProviderExpo:
		logger.Info("Using Expo push delivery",
			slog.Int("chunk_limit", cfg.ChunkLimit),
		)

		return NewExpoService(cfg.Endpoint, cfg.ChunkLimit, logger), nil

	case ProviderFCM:
		firebaseCfg := params.Config.Firebase
		if firebaseCfg == nil || firebaseCfg.CredentialsPath == "" {
			return nil, errors.New("firebase credentials are required for fcm provider")
		}

		chunkLimit := cfg.ChunkLimit
		if chunkLimit > fcmChunkCap {
			chunkLimit = fcmChunkCap
		}
		logger.Info("Using FCM push delivery",
			slog.Int("chunk_limit", chunkLimit),
		)

		return NewFCMService(params.Ctx, firebaseCfg.CredentialsPath, chunkLimit, logger)

	default:
		return nil, errors.Errorf("unknown push provider: %s", cfg.Provider)
	}
}
