package loyalty

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

// AwardInput describes one paid order's contribution to a loyalty account.
type AwardInput struct {
	UserID          uuid.UUID
	OrderTotal      decimal.Decimal
	PointsPerEuro   decimal.Decimal
	VoucherPurchase bool
}

// AwardResult reports the mutation applied to the account.
type AwardResult struct {
	Points     int64
	TotalSpent decimal.Decimal
	Tier       string
}

// Service maintains loyalty accounts.
type Service interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error)
	Award(ctx context.Context, tx *gorm.DB, input AwardInput) (*AwardResult, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the loyalty service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// GetAccount returns the user's account, materializing a fresh bronze one for
// first-time buyers.
func (s *service) GetAccount(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error) {
	account, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &models.LoyaltyAccount{
			UserID:     userID,
			TotalSpent: decimal.Zero,
			Tier:       TierFor(decimal.Zero),
		}, nil
	}
	return account, nil
}

// Award credits points for a paid order inside the caller's transaction. The
// multiplier uses the tier the customer held before this order; the spend then
// moves the tier forward if a threshold was crossed.
func (s *service) Award(ctx context.Context, tx *gorm.DB, input AwardInput) (*AwardResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.OrderTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.FindByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account, err = repo.Create(ctx, &models.LoyaltyAccount{
			ID:         uuid.New(),
			UserID:     input.UserID,
			TotalSpent: decimal.Zero,
			Tier:       TierFor(decimal.Zero),
		})
		if err != nil {
			return nil, err
		}
	}

	points := PointsFor(input.OrderTotal, input.PointsPerEuro, account.Tier, input.VoucherPurchase)
	account.LoyaltyPoints += points
	account.TotalSpent = account.TotalSpent.Add(input.OrderTotal)
	account.Tier = TierFor(account.TotalSpent)

	if err := repo.Save(ctx, account); err != nil {
		return nil, err
	}

	return &AwardResult{
		Points:     points,
		TotalSpent: account.TotalSpent,
		Tier:       account.Tier.String(),
	}, nil
}
