// Package scheduler runs the deferred-delivery polling loop.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"sahara/config"
	"sahara/internal/delivery"
	"sahara/internal/usecase"

	"go.uber.org/fx"
)

// ServerParams holds dependencies for the scheduler loop
type ServerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
	Uc     usecase.SchedulerUsecase
}

type schedulerServer struct {
	cfg    *config.Config
	logger *slog.Logger
	uc     usecase.SchedulerUsecase
	done   chan struct{}
}

// NewServer creates the scheduler delivery. When scheduling is disabled in
// config the loop exits immediately without polling.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &schedulerServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		uc:     params.Uc,
		done:   make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// Serve polls for due notifications on every tick until shutdown.
func (s *schedulerServer) Serve(ctx context.Context) error {
	cfg := s.cfg.Scheduler
	if cfg == nil || !cfg.Enabled {
		s.logger.Info("Scheduler disabled, skipping deferred delivery loop")

		return nil
	}

	s.logger.Info("Starting scheduler loop",
		slog.Duration("tick", cfg.Tick),
		slog.Int("max_due_per_tick", cfg.MaxDuePerTick),
	)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.done:
			return nil

		case now := <-ticker.C:
			dispatched, err := s.uc.DispatchDue(ctx, now, cfg.MaxDuePerTick)
			if err != nil {
				s.logger.Error("Scheduler tick failed", slog.Any("error", err))

				continue
			}
			if dispatched > 0 {
				s.logger.Info("Dispatched scheduled notifications", slog.Int("count", dispatched))
			}
		}
	}
}

func (s *schedulerServer) stop(ctx context.Context) error {
	s.logger.Info("Shutting down scheduler loop")
	close(s.done)

	return nil
}
