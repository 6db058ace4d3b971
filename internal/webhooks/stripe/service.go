package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/telaprint/telaprint-backend/internal/payments"
	"github.com/telaprint/telaprint-backend/internal/reconcile"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

// Service routes verified Stripe events into the reconciliation engine.
// Checkout sessions carry either an order id or a quote id in their metadata,
// written by the payment linker when the session was created.
type Service struct {
	reconciler reconcile.Service
	logg       *logger.Logger
}

func NewService(reconciler reconcile.Service, logg *logger.Logger) (*Service, error) {
	if reconciler == nil {
		return nil, fmt.Errorf("reconcile service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{reconciler: reconciler, logg: logg}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		return s.handleCheckoutCompleted(ctx, &session)
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	reference := paymentReference(session)

	if raw, ok := session.Metadata[payments.MetadataOrderID]; ok && raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order id metadata")
		}
		_, err = s.reconciler.MarkOrderPaid(ctx, reconcile.MarkOrderPaidInput{
			OrderID:          orderID,
			Trigger:          enums.ReconcileTriggerWebhook,
			PaymentReference: reference,
		})
		return s.swallowUnknown(ctx, err, "order", raw)
	}

	if raw, ok := session.Metadata[payments.MetadataQuoteID]; ok && raw != "" {
		quoteID, err := uuid.Parse(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse quote id metadata")
		}
		_, err = s.reconciler.ConvertQuote(ctx, reconcile.ConvertQuoteInput{
			QuoteID:          quoteID,
			Trigger:          enums.ReconcileTriggerQuoteWebhook,
			PaymentReference: reference,
		})
		return s.swallowUnknown(ctx, err, "quote", raw)
	}

	s.logg.Warn(ctx, "checkout session completed without order or quote metadata")
	return nil
}

// swallowUnknown turns not-found into a logged no-op. A session created
// against a since-deleted entity must not make Stripe retry forever.
func (s *Service) swallowUnknown(ctx context.Context, err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
		warnCtx := s.logg.WithFields(ctx, map[string]any{"kind": kind, "id": id})
		s.logg.Warn(warnCtx, "checkout session references unknown entity, dropping event")
		return nil
	}
	return err
}

func paymentReference(session *stripe.CheckoutSession) *string {
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		ref := session.PaymentIntent.ID
		return &ref
	}
	if session.ID != "" {
		ref := session.ID
		return &ref
	}
	return nil
}
