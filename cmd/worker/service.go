package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/telaprint/telaprint-backend/internal/notifications"
	"github.com/telaprint/telaprint-backend/pkg/config"
	"github.com/telaprint/telaprint-backend/pkg/db"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/outbox"
)

type ServiceParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
}

// Service runs the background side of the system: draining outbox events into
// customer notifications.
type Service struct {
	cfg     *config.Config
	logg    *logger.Logger
	db      *db.Client
	drainer *notifications.Drainer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("database client required")
	}

	notifier, err := notifications.NewLogNotifier(params.Logger)
	if err != nil {
		return nil, fmt.Errorf("building notifier: %w", err)
	}
	drainer, err := notifications.NewDrainer(
		params.DB,
		outbox.NewRepository(params.DB.DB()),
		notifier,
		params.Config.Outbox,
		params.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("building outbox drainer: %w", err)
	}

	return &Service{
		cfg:     params.Config,
		logg:    params.Logger,
		db:      params.DB,
		drainer: drainer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	s.logg.Info(ctx, "worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.drainer.Run(ctx)
	})
	group.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.logg.Info(ctx, "worker heartbeat")
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "worker component stopped unexpectedly", err)
		return err
	}
	return context.Canceled
}
