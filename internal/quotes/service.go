package quotes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/internal/payments"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

// SubmitInput is the customer's request for a custom print price.
type SubmitInput struct {
	EstimatedMeters decimal.Decimal
	UseVoucher      bool
	Notes           *string
}

// Service owns the quote lifecycle up to payment. Confirming payment and
// converting to an order is the reconciliation service's job.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Quote, error)
	GetForUser(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Quote, string, error)
	ListPendingReview(ctx context.Context, params pagination.Params) ([]models.Quote, string, error)
	AttachPricing(ctx context.Context, quoteID uuid.UUID, pricePerMeter decimal.Decimal) (*models.Quote, error)
	SendPaymentLink(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	SetBizum(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	UpdateNotes(ctx context.Context, quoteID uuid.UUID, notes string) (*models.Quote, error)
	Cancel(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	Expire(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
}

type service struct {
	repo   Repository
	linker payments.Linker
	logg   *logger.Logger
}

// NewService builds the quotes service.
func NewService(repo Repository, linker payments.Linker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if linker == nil {
		return nil, fmt.Errorf("payment linker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, linker: linker, logg: logg}, nil
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Quote, error) {
	if !input.EstimatedMeters.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated meters must be positive")
	}

	quote := &models.Quote{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          enums.QuoteStatusPendingReview,
		EstimatedMeters: input.EstimatedMeters,
		PaymentMethod:   enums.PaymentMethodCard,
		UseVoucher:      input.UseVoucher,
		Notes:           input.Notes,
	}
	created, err := s.repo.Create(ctx, quote)
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithQuoteID(ctx, created.ID.String()), "quote submitted for review")
	return created, nil
}

func (s *service) GetForUser(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return quote, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Quote, string, error) {
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *service) ListPendingReview(ctx context.Context, params pagination.Params) ([]models.Quote, string, error) {
	return s.repo.ListByStatus(ctx, enums.QuoteStatusPendingReview, params)
}

// AttachPricing sets the reviewed price and moves the quote to quoted.
func (s *service) AttachPricing(ctx context.Context, quoteID uuid.UUID, pricePerMeter decimal.Decimal) (*models.Quote, error) {
	if !pricePerMeter.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per meter must be positive")
	}

	quote, err := s.transition(ctx, quoteID, enums.QuoteStatusQuoted, func(quote *models.Quote) error {
		total := pricePerMeter.Mul(quote.EstimatedMeters).Round(2)
		quote.PricePerMeter = &pricePerMeter
		quote.Total = &total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// SendPaymentLink generates the hosted checkout URL for a quoted price and
// marks the payment as sent.
func (s *service) SendPaymentLink(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusPaymentSent, func(quote *models.Quote) error {
		if quote.Total == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quote has no computed total")
		}
		url, err := s.linker.QuoteCheckoutLink(ctx, quote)
		if err != nil {
			return err
		}
		quote.PaymentMethod = enums.PaymentMethodCard
		quote.PaymentLink = &url
		return nil
	})
}

// SetBizum records that the customer will pay by Bizum transfer; an admin
// confirms receipt later via the manual mark-paid action.
func (s *service) SetBizum(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusPaymentSent, func(quote *models.Quote) error {
		if quote.Total == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quote has no computed total")
		}
		quote.PaymentMethod = enums.PaymentMethodBizum
		quote.PaymentLink = nil
		return nil
	})
}

func (s *service) UpdateNotes(ctx context.Context, quoteID uuid.UUID, notes string) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote can no longer change")
	}
	quote.Notes = &notes
	if err := s.repo.Save(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) Cancel(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusCancelled, nil)
}

func (s *service) Expire(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusExpired, nil)
}

func (s *service) transition(ctx context.Context, quoteID uuid.UUID, next enums.QuoteStatus, mutate func(*models.Quote) error) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !quote.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "illegal quote transition").WithDetails(map[string]any{
			"from": quote.Status.String(),
			"to":   next.String(),
		})
	}
	if mutate != nil {
		if err := mutate(quote); err != nil {
			return nil, err
		}
	}
	quote.Status = next
	if err := s.repo.Save(ctx, quote); err != nil {
		return nil, err
	}

	quoteCtx := s.logg.WithQuoteID(ctx, quote.ID.String())
	s.logg.Info(quoteCtx, fmt.Sprintf("quote moved to %s", next))
	return quote, nil
}
