package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/db"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

// Balance is the aggregate spendable credit across a user's vouchers.
type Balance struct {
	Meters    decimal.Decimal
	Shipments int
}

// Allocation splits a metered need between voucher credit and cash.
type Allocation struct {
	MetersNeeded      decimal.Decimal
	MetersFromVoucher decimal.Decimal
	MetersToPay       decimal.Decimal
}

// ConsumeInput describes one order's draw against a user's voucher balance.
// AllowPartial turns a shortfall into a best-effort drain instead of an
// error; payment-confirmation paths use it because the charge already
// happened and must not be rolled back over a moved balance.
type ConsumeInput struct {
	UserID       uuid.UUID
	OrderID      uuid.UUID
	Meters       decimal.Decimal
	Shipments    int
	AllowPartial bool
	Now          time.Time
}

// ConsumeResult reports what the FIFO walk actually deducted. FirstVoucherID
// identifies the oldest voucher touched; orders record that reference once.
type ConsumeResult struct {
	FirstVoucherID    *uuid.UUID
	MetersConsumed    decimal.Decimal
	ShipmentsConsumed int
	DrainedVoucherIDs []uuid.UUID
	TouchedVoucherIDs []uuid.UUID
}

// MintInput carries everything needed to issue a voucher from a template
// after a voucher-product purchase is confirmed.
type MintInput struct {
	UserID      uuid.UUID
	OrderID     uuid.UUID
	OrderNumber int64
	Template    models.VoucherTemplate
	Now         time.Time
}

// Service is the prepaid voucher ledger.
type Service interface {
	AvailableBalance(ctx context.Context, userID uuid.UUID) (Balance, error)
	AvailableMeters(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Allocate(ctx context.Context, userID uuid.UUID, metersNeeded decimal.Decimal) (Allocation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Voucher, error)
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	Consume(ctx context.Context, tx *gorm.DB, input ConsumeInput) (*ConsumeResult, error)
	Mint(ctx context.Context, tx *gorm.DB, input MintInput) (*models.Voucher, bool, error)
}

type service struct {
	repo       Repository
	codePrefix string
	logg       *logger.Logger
}

// NewService builds the voucher ledger service.
func NewService(repo Repository, codePrefix string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	if strings.TrimSpace(codePrefix) == "" {
		return nil, fmt.Errorf("voucher code prefix required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, codePrefix: codePrefix, logg: logg}, nil
}

func (s *service) AvailableBalance(ctx context.Context, userID uuid.UUID) (Balance, error) {
	vouchers, err := s.repo.ListActiveByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return Balance{}, err
	}

	balance := Balance{Meters: decimal.Zero}
	for _, v := range vouchers {
		if v.RemainingMeters.IsPositive() {
			balance.Meters = balance.Meters.Add(v.RemainingMeters)
		}
		if v.RemainingShipments > 0 {
			balance.Shipments += v.RemainingShipments
		}
	}
	return balance, nil
}

func (s *service) AvailableMeters(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.AvailableBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Meters, nil
}

// Allocate splits metersNeeded between available voucher credit and cash.
// The split always satisfies MetersFromVoucher + MetersToPay == MetersNeeded.
func (s *service) Allocate(ctx context.Context, userID uuid.UUID, metersNeeded decimal.Decimal) (Allocation, error) {
	if metersNeeded.IsNegative() {
		return Allocation{}, pkgerrors.New(pkgerrors.CodeValidation, "meters needed cannot be negative")
	}

	available, err := s.AvailableMeters(ctx, userID)
	if err != nil {
		return Allocation{}, err
	}

	fromVoucher := decimal.Min(available, metersNeeded)
	return Allocation{
		MetersNeeded:      metersNeeded,
		MetersFromVoucher: fromVoucher,
		MetersToPay:       metersNeeded.Sub(fromVoucher),
	}, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Voucher, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	return s.repo.FindByCode(ctx, strings.TrimSpace(code))
}

// Consume deducts meters and shipment credits FIFO across the user's active
// vouchers inside the caller's transaction. Meter and shipment balances drain
// independently; a voucher's usage count bumps once per order it serves. On a
// concurrent balance change the walk reloads and retries once, then surfaces
// a conflict for the caller to retry.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, input ConsumeInput) (*ConsumeResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.Meters.IsNegative() || input.Shipments < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consumption amounts cannot be negative")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := s.consumeWalk(ctx, tx, input, now)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrVersionConflict) {
		return nil, err
	}

	warnCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":  input.UserID.String(),
		"order_id": input.OrderID.String(),
	})
	s.logg.Warn(warnCtx, "voucher balance moved during consumption, retrying")

	result, err = s.consumeWalk(ctx, tx, input, now)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrVersionConflict) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "voucher balance changed, retry")
	}
	return nil, err
}

func (s *service) consumeWalk(ctx context.Context, tx *gorm.DB, input ConsumeInput, now time.Time) (*ConsumeResult, error) {
	repo := s.repo.WithTx(tx)

	vouchers, err := repo.ListActiveByUser(ctx, input.UserID, now)
	if err != nil {
		return nil, err
	}
	SortForConsumption(vouchers)

	result := &ConsumeResult{MetersConsumed: decimal.Zero}
	metersLeft := input.Meters
	shipmentsLeft := input.Shipments

	for i := range vouchers {
		if !metersLeft.IsPositive() && shipmentsLeft == 0 {
			break
		}
		voucher := vouchers[i]
		expectedVersion := voucher.Version
		touched := false

		if metersLeft.IsPositive() && voucher.RemainingMeters.IsPositive() {
			take := decimal.Min(voucher.RemainingMeters, metersLeft)
			voucher.RemainingMeters = voucher.RemainingMeters.Sub(take)
			metersLeft = metersLeft.Sub(take)
			result.MetersConsumed = result.MetersConsumed.Add(take)
			touched = true
		}
		if shipmentsLeft > 0 && voucher.RemainingShipments > 0 {
			take := voucher.RemainingShipments
			if take > shipmentsLeft {
				take = shipmentsLeft
			}
			voucher.RemainingShipments -= take
			shipmentsLeft -= take
			result.ShipmentsConsumed += take
			touched = true
		}
		if !touched {
			continue
		}

		voucher.UsageCount++
		voucher.RecomputeActive(now)
		if err := repo.UpdateBalance(ctx, &voucher, expectedVersion); err != nil {
			return nil, err
		}

		if result.FirstVoucherID == nil {
			id := voucher.ID
			result.FirstVoucherID = &id
		}
		result.TouchedVoucherIDs = append(result.TouchedVoucherIDs, voucher.ID)
		if !voucher.IsActive {
			result.DrainedVoucherIDs = append(result.DrainedVoucherIDs, voucher.ID)
		}
	}

	if metersLeft.IsPositive() && !input.AllowPartial {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient voucher balance").WithDetails(map[string]any{
			"meters_short": metersLeft.String(),
		})
	}
	return result, nil
}

// Mint issues a voucher from a template inside the caller's transaction. The
// code is derived from the order number and template, so replaying the same
// confirmation hits the unique index and returns the already-issued voucher.
func (s *service) Mint(ctx context.Context, tx *gorm.DB, input MintInput) (*models.Voucher, bool, error) {
	if tx == nil {
		return nil, false, fmt.Errorf("transaction required")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	repo := s.repo.WithTx(tx)

	code := MintCode(s.codePrefix, input.OrderNumber, input.Template.ID)
	voucher := &models.Voucher{
		ID:                 uuid.New(),
		Code:               code,
		UserID:             input.UserID,
		OrderID:            &input.OrderID,
		TemplateID:         input.Template.ID,
		InitialMeters:      input.Template.InitialMeters,
		RemainingMeters:    input.Template.InitialMeters,
		InitialShipments:   input.Template.InitialShipments,
		RemainingShipments: input.Template.InitialShipments,
		IsActive:           true,
	}

	created, err := repo.Create(ctx, voucher)
	if err == nil {
		infoCtx := s.logg.WithFields(ctx, map[string]any{
			"voucher_code": code,
			"user_id":      input.UserID.String(),
		})
		s.logg.Info(infoCtx, "voucher minted")
		return created, true, nil
	}
	if !db.IsUniqueViolation(err, "idx_vouchers_code") {
		return nil, false, err
	}

	existing, err := repo.FindByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// MintCode derives the deterministic voucher code for an order and template.
func MintCode(prefix string, orderNumber int64, templateID uuid.UUID) string {
	return fmt.Sprintf("%s-%d-%s", prefix, orderNumber, strings.ToUpper(templateID.String()[:8]))
}
