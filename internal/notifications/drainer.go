package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/config"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/outbox"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error
}

// Drainer polls the outbox table and hands committed events to the notifier.
// Each batch is claimed with SKIP LOCKED, so several drainer instances can
// share the backlog without double delivery.
type Drainer struct {
	tx           txRunner
	repo         outboxRepository
	notifier     Notifier
	logg         *logger.Logger
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewDrainer(tx txRunner, repo outboxRepository, notifier Notifier, cfg config.OutboxConfig, logg *logger.Logger) (*Drainer, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := cfg.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Drainer{
		tx:           tx,
		repo:         repo,
		notifier:     notifier,
		logg:         logg,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled.
func (d *Drainer) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.DrainOnce(ctx); err != nil {
				d.logg.Error(ctx, "outbox drain pass failed", err)
			}
		}
	}
}

// DrainOnce claims and delivers a single batch, returning how many events
// were delivered.
func (d *Drainer) DrainOnce(ctx context.Context) (int, error) {
	delivered := 0
	err := d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := d.repo.FetchUnpublishedForPublish(tx, d.batchSize, d.maxAttempts)
		if err != nil {
			return err
		}
		for _, event := range events {
			if err := d.notifier.Deliver(ctx, event); err != nil {
				logCtx := d.logg.WithField(ctx, "event_id", event.ID.String())
				d.logg.Warn(logCtx, fmt.Sprintf("delivery failed: %v", err))
				if markErr := d.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
					return markErr
				}
				continue
			}
			if err := d.repo.MarkPublishedTx(tx, event.ID); err != nil {
				return err
			}
			delivered++
		}
		return nil
	})
	return delivered, err
}

var _ outboxRepository = (*outbox.Repository)(nil)
