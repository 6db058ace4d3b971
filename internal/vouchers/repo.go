package vouchers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
)

// ErrVersionConflict signals that a voucher row moved under an optimistic
// update. Callers reload and retry once before surfacing a conflict.
var ErrVersionConflict = errors.New("voucher version conflict")

// Repository persists issued vouchers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Voucher, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Voucher, error)
	UpdateBalance(ctx context.Context, voucher *models.Voucher, expectedVersion int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a voucher repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, err
	}
	return &voucher, nil
}

// ListActiveByUser returns the user's spendable vouchers oldest-first. A
// voucher with only shipment credit left still qualifies.
func (r *repository) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Where("remaining_meters > 0 OR remaining_shipments > 0").
		Order("created_at ASC, id ASC").
		Find(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

// UpdateBalance writes the voucher's balance fields guarded by the version
// column. Zero rows affected means a concurrent writer won the race.
func (r *repository) UpdateBalance(ctx context.Context, voucher *models.Voucher, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ? AND version = ?", voucher.ID, expectedVersion).
		Updates(map[string]any{
			"remaining_meters":    voucher.RemainingMeters,
			"remaining_shipments": voucher.RemainingShipments,
			"usage_count":         voucher.UsageCount,
			"is_active":           voucher.IsActive,
			"version":             expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	voucher.Version = expectedVersion + 1
	return nil
}
