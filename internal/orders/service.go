package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/internal/payments"
	"github.com/telaprint/telaprint-backend/internal/pricing"
	"github.com/telaprint/telaprint-backend/internal/settings"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

var percentFactor = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckoutInput is a customer's cart at the moment of checkout.
type CheckoutInput struct {
	Lines         []pricing.LineInput
	UseVoucher    bool
	PaymentMethod enums.PaymentMethod
	Notes         *string
}

// CheckoutResult pairs the pending order with the hosted payment URL.
type CheckoutResult struct {
	Order      *models.Order
	Quote      *pricing.CartQuote
	PaymentURL string
}

// Service owns order creation and reads. Payment confirmation lives in the
// reconciliation service.
type Service interface {
	PreviewCart(ctx context.Context, userID uuid.UUID, lines []pricing.LineInput, useVoucher bool) (*pricing.CartQuote, error)
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	pricer   pricing.Service
	settings settings.Service
	linker   payments.Linker
	logg     *logger.Logger
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, pricer pricing.Service, settingsSvc settings.Service, linker payments.Linker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if linker == nil {
		return nil, fmt.Errorf("payment linker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, pricer: pricer, settings: settingsSvc, linker: linker, logg: logg}, nil
}

func (s *service) PreviewCart(ctx context.Context, userID uuid.UUID, lines []pricing.LineInput, useVoucher bool) (*pricing.CartQuote, error) {
	return s.pricer.Quote(ctx, userID, lines, useVoucher)
}

// Checkout prices the cart, persists a pending order, and hands back the
// hosted payment URL. The order stays pending until the gateway webhook (or an
// admin) confirms payment.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	quote, err := s.pricer.Quote(ctx, userID, input.Lines, input.UseVoucher)
	if err != nil {
		return nil, err
	}

	taxRate, err := s.settings.Decimal(ctx, settings.KeyTaxRate)
	if err != nil {
		return nil, err
	}
	tax := quote.PayableSubtotal.Mul(taxRate).Div(percentFactor).Round(2)

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            userID,
		Status:            enums.OrderStatusPending,
		PaymentMethod:     input.PaymentMethod,
		Subtotal:          quote.PayableSubtotal,
		OriginalSubtotal:  quote.OriginalSubtotal,
		PrioritySurcharge: quote.PrioritySurcharge,
		Tax:               tax,
		Total:             quote.PayableSubtotal.Add(tax),
		UseVoucherBalance: input.UseVoucher && quote.MetersFromVoucher.IsPositive(),
		VoucherMeters:     quote.MetersFromVoucher,
		Notes:             input.Notes,
	}
	// Priced lines come back in input order, so extras align by index.
	for i, line := range quote.Lines {
		productID := line.ProductID
		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductType: line.ProductType,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
		}
		if i < len(input.Lines) {
			item.Extras = input.Lines[i].Extras
		}
		order.Items = append(order.Items, item)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		_, err = repo.Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: order, Quote: quote}
	if input.PaymentMethod == enums.PaymentMethodCard {
		url, err := s.linker.OrderCheckoutLink(ctx, order)
		if err != nil {
			return nil, err
		}
		result.PaymentURL = url
	}

	orderCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(orderCtx, fmt.Sprintf("order %d created, awaiting payment", order.OrderNumber))
	return result, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return s.repo.ListByUser(ctx, userID, params)
}
