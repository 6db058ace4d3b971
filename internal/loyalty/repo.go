package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
)

// Repository persists loyalty accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error)
	Create(ctx context.Context, account *models.LoyaltyAccount) (*models.LoyaltyAccount, error)
	Save(ctx context.Context, account *models.LoyaltyAccount) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loyalty repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByUser returns nil without error when the user has no account yet.
func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.LoyaltyAccount) (*models.LoyaltyAccount, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) Save(ctx context.Context, account *models.LoyaltyAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}
