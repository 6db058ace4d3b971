package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/internal/loyalty"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/internal/products"
	"github.com/telaprint/telaprint-backend/internal/quotes"
	"github.com/telaprint/telaprint-backend/internal/settings"
	"github.com/telaprint/telaprint-backend/internal/vouchers"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/metrics"
	"github.com/telaprint/telaprint-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MarkOrderPaidInput confirms payment for a pre-created order. OrderNumber is
// an alternative lookup key for out-of-band confirmations where the operator
// only has the customer-facing number.
type MarkOrderPaidInput struct {
	OrderID          uuid.UUID
	OrderNumber      *int64
	Trigger          enums.ReconcileTrigger
	Actor            *outbox.ActorRef
	PaymentReference *string
}

// ConvertQuoteInput confirms payment for a quote, creating its order.
type ConvertQuoteInput struct {
	QuoteID          uuid.UUID
	Trigger          enums.ReconcileTrigger
	Actor            *outbox.ActorRef
	PaymentReference *string
}

// Result reports what one reconciliation pass did. Replayed means the event
// had already been applied and nothing changed.
type Result struct {
	Order             *models.Order
	Replayed          bool
	MintedVoucherIDs  []uuid.UUID
	ConsumedVoucherID *uuid.UUID
	LoyaltyPoints     int64
}

// Service is the payment reconciliation state machine. Three entry points
// converge here: the gateway webhook for cart orders, the gateway webhook for
// quote checkouts, and admin actions. Each transition is idempotent, so a
// replayed or out-of-order event settles into the same final state.
type Service interface {
	MarkOrderPaid(ctx context.Context, input MarkOrderPaidInput) (*Result, error)
	ConvertQuote(ctx context.Context, input ConvertQuoteInput) (*Result, error)
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	quotes   quotes.Repository
	products products.Repository
	vouchers vouchers.Service
	loyalty  loyalty.Service
	settings settings.Service
	outbox   outbox.Publisher
	metrics  *metrics.ReconcileMetrics
	logg     *logger.Logger
}

// NewService builds the reconciliation service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	quotesRepo quotes.Repository,
	productsRepo products.Repository,
	vouchersSvc vouchers.Service,
	loyaltySvc loyalty.Service,
	settingsSvc settings.Service,
	publisher outbox.Publisher,
	reconcileMetrics *metrics.ReconcileMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if quotesRepo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if vouchersSvc == nil {
		return nil, fmt.Errorf("vouchers service required")
	}
	if loyaltySvc == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		orders:   ordersRepo,
		quotes:   quotesRepo,
		products: productsRepo,
		vouchers: vouchersSvc,
		loyalty:  loyaltySvc,
		settings: settingsSvc,
		outbox:   publisher,
		metrics:  reconcileMetrics,
		logg:     logg,
	}, nil
}

// MarkOrderPaid transitions a pending order to paid: status history, voucher
// minting for voucher-product items, voucher consumption when the order opted
// in, loyalty points, and queued notifications. Replaying the same
// confirmation is a no-op.
func (s *service) MarkOrderPaid(ctx context.Context, input MarkOrderPaidInput) (*Result, error) {
	if !input.Trigger.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown reconcile trigger")
	}
	start := time.Now()
	result := &Result{}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.markOrderPaidTx(ctx, tx, input, result)
	})
	s.observe(input.Trigger, start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) markOrderPaidTx(ctx context.Context, tx *gorm.DB, input MarkOrderPaidInput, result *Result) error {
	repo := s.orders.WithTx(tx)

	orderID := input.OrderID
	if orderID == uuid.Nil {
		if input.OrderNumber == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order id or order number required")
		}
		found, err := repo.FindByOrderNumber(ctx, *input.OrderNumber)
		if err != nil {
			return err
		}
		orderID = found.ID
	}

	order, err := repo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if order.Status == enums.OrderStatusPaid {
		result.Order = order
		result.Replayed = true
		s.metrics.IncReplay()
		s.logg.Info(ctx, "payment confirmation replayed, nothing to do")
		return nil
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already reached a terminal state").WithDetails(map[string]any{
			"status": order.Status.String(),
		})
	}

	now := time.Now().UTC()
	from := order.Status
	order.Status = enums.OrderStatusPaid
	order.PaidAt = &now
	if input.PaymentReference != nil {
		order.PaymentReference = input.PaymentReference
	}
	if err := repo.Save(ctx, order); err != nil {
		return err
	}
	if err := s.recordTransition(ctx, repo, order.ID, from, enums.OrderStatusPaid, input.Trigger, input.Actor); err != nil {
		return err
	}

	voucherPurchase, err := s.mintVouchersForOrder(ctx, tx, order, result)
	if err != nil {
		return err
	}

	if order.UseVoucherBalance {
		// Drain the split priced at checkout; the balance may have grown
		// since and the customer only paid cash for the remainder.
		if err := s.consumeForOrder(ctx, tx, order, order.VoucherMeters, true, result); err != nil {
			return err
		}
	}

	if err := s.awardLoyalty(ctx, tx, order, voucherPurchase, result); err != nil {
		return err
	}

	if err := s.emitPaidEvents(ctx, tx, order, input.Actor, result); err != nil {
		return err
	}

	s.logg.Info(ctx, fmt.Sprintf("order %d reconciled to paid via %s", order.OrderNumber, input.Trigger))
	result.Order = order
	return nil
}

// ConvertQuote is the shared conversion routine behind the admin mark-paid
// action and the quote-checkout webhook. The quote row is locked and
// quote.order_id rechecked inside the transaction, so concurrent or repeated
// confirmations cannot double-create the order.
func (s *service) ConvertQuote(ctx context.Context, input ConvertQuoteInput) (*Result, error) {
	if !input.Trigger.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown reconcile trigger")
	}
	start := time.Now()
	result := &Result{}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.convertQuoteTx(ctx, tx, input, result)
	})
	s.observe(input.Trigger, start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) convertQuoteTx(ctx context.Context, tx *gorm.DB, input ConvertQuoteInput, result *Result) error {
	quotesRepo := s.quotes.WithTx(tx)
	ordersRepo := s.orders.WithTx(tx)

	quote, err := quotesRepo.FindByIDForUpdate(ctx, input.QuoteID)
	if err != nil {
		return err
	}
	ctx = s.logg.WithQuoteID(ctx, quote.ID.String())

	if quote.OrderID != nil {
		existing, err := ordersRepo.FindByID(ctx, *quote.OrderID)
		if err != nil {
			return err
		}
		result.Order = existing
		result.Replayed = true
		s.metrics.IncReplay()
		s.logg.Info(ctx, "quote already converted, nothing to do")
		return nil
	}
	if quote.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quote already reached a terminal state").WithDetails(map[string]any{
			"status": quote.Status.String(),
		})
	}
	if quote.Total == nil || quote.PricePerMeter == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote has no computed total")
	}

	orderID := uuid.New()

	// Bono-funded quotes demand full coverage. The strict consume walk
	// aborts the transaction before any money state changes.
	if quote.UseVoucher {
		if err := s.consumeForQuote(ctx, tx, quote, orderID, result); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	number, err := ordersRepo.NextOrderNumber(ctx)
	if err != nil {
		return err
	}

	quoteVoucherMeters := decimal.Zero
	if quote.UseVoucher {
		quoteVoucherMeters = quote.EstimatedMeters
	}

	order := &models.Order{
		ID:                orderID,
		OrderNumber:       number,
		UserID:            quote.UserID,
		Status:            enums.OrderStatusPaid,
		PaymentMethod:     quote.PaymentMethod,
		PaymentReference:  input.PaymentReference,
		QuoteID:           &quote.ID,
		Subtotal:          *quote.Total,
		OriginalSubtotal:  *quote.Total,
		PrioritySurcharge: decimal.Zero,
		Tax:               decimal.Zero,
		Total:             *quote.Total,
		UseVoucherBalance: quote.UseVoucher,
		VoucherMeters:     quoteVoucherMeters,
		Notes:             quote.Notes,
		PaidAt:            &now,
		Items: []models.OrderItem{
			{
				ID:          uuid.New(),
				ProductType: enums.ProductTypeMeteredFabric,
				Quantity:    quote.EstimatedMeters,
				UnitPrice:   *quote.PricePerMeter,
				Subtotal:    *quote.Total,
			},
		},
	}
	order.Items[0].OrderID = order.ID

	if _, err := ordersRepo.Create(ctx, order); err != nil {
		return err
	}
	if err := s.recordTransition(ctx, ordersRepo, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid, input.Trigger, input.Actor); err != nil {
		return err
	}

	if result.ConsumedVoucherID != nil {
		if err := ordersRepo.SetVoucherIDIfNull(ctx, order.ID, *result.ConsumedVoucherID); err != nil {
			return err
		}
		order.VoucherID = result.ConsumedVoucherID
	}

	if err := s.awardLoyalty(ctx, tx, order, false, result); err != nil {
		return err
	}

	quote.Status = enums.QuoteStatusPaid
	quote.OrderID = &order.ID
	quote.ConvertedAt = &now
	if err := quotesRepo.Save(ctx, quote); err != nil {
		return err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventQuoteConverted,
		AggregateType: enums.OutboxAggregateQuote,
		AggregateID:   quote.ID,
		Actor:         input.Actor,
		Data: map[string]any{
			"quoteId":     quote.ID.String(),
			"orderId":     order.ID.String(),
			"orderNumber": order.OrderNumber,
		},
	}); err != nil {
		return err
	}
	if err := s.emitPaidEvents(ctx, tx, order, input.Actor, result); err != nil {
		return err
	}

	s.logg.Info(ctx, fmt.Sprintf("quote converted to order %d via %s", order.OrderNumber, input.Trigger))
	result.Order = order
	return nil
}

// mintVouchersForOrder issues one voucher per voucher-product line item. The
// deterministic code makes re-minting on replay impossible.
func (s *service) mintVouchersForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, result *Result) (bool, error) {
	productsRepo := s.products.WithTx(tx)
	voucherPurchase := false

	for _, item := range order.Items {
		if item.ProductType != enums.ProductTypeVoucher || item.ProductID == nil {
			continue
		}
		voucherPurchase = true

		template, err := productsRepo.TemplateByProductID(ctx, *item.ProductID)
		if err != nil {
			return false, err
		}
		voucher, created, err := s.vouchers.Mint(ctx, tx, vouchers.MintInput{
			UserID:      order.UserID,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Template:    *template,
		})
		if err != nil {
			return false, err
		}
		if !created {
			continue
		}
		result.MintedVoucherIDs = append(result.MintedVoucherIDs, voucher.ID)

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventVoucherIssued,
			AggregateType: enums.OutboxAggregateVoucher,
			AggregateID:   voucher.ID,
			Data: map[string]any{
				"voucherCode": voucher.Code,
				"userId":      order.UserID.String(),
				"orderId":     order.ID.String(),
			},
		}); err != nil {
			return false, err
		}
	}
	return voucherPurchase, nil
}

// shipmentsPerOrder is the free-shipment credit each voucher-consuming
// order redeems alongside its meters.
const shipmentsPerOrder = 1

func (s *service) consumeForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, meters decimal.Decimal, allowPartial bool, result *Result) error {
	if !meters.IsPositive() {
		return nil
	}

	consumed, err := s.vouchers.Consume(ctx, tx, vouchers.ConsumeInput{
		UserID:       order.UserID,
		OrderID:      order.ID,
		Meters:       meters,
		Shipments:    shipmentsPerOrder,
		AllowPartial: allowPartial,
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeConflict {
			s.metrics.IncVoucherConflict()
		}
		return err
	}
	return s.applyConsumption(ctx, tx, order, consumed, result)
}

func (s *service) consumeForQuote(ctx context.Context, tx *gorm.DB, quote *models.Quote, orderID uuid.UUID, result *Result) error {
	consumed, err := s.vouchers.Consume(ctx, tx, vouchers.ConsumeInput{
		UserID:    quote.UserID,
		OrderID:   orderID,
		Meters:    quote.EstimatedMeters,
		Shipments: shipmentsPerOrder,
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeConflict {
			s.metrics.IncVoucherConflict()
		}
		return err
	}
	if consumed.FirstVoucherID != nil {
		result.ConsumedVoucherID = consumed.FirstVoucherID
	}
	return s.emitDrained(ctx, tx, consumed)
}

func (s *service) applyConsumption(ctx context.Context, tx *gorm.DB, order *models.Order, consumed *vouchers.ConsumeResult, result *Result) error {
	if consumed.FirstVoucherID != nil {
		if err := s.orders.WithTx(tx).SetVoucherIDIfNull(ctx, order.ID, *consumed.FirstVoucherID); err != nil {
			return err
		}
		result.ConsumedVoucherID = consumed.FirstVoucherID
	}
	return s.emitDrained(ctx, tx, consumed)
}

func (s *service) emitDrained(ctx context.Context, tx *gorm.DB, consumed *vouchers.ConsumeResult) error {
	for _, voucherID := range consumed.DrainedVoucherIDs {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventVoucherDrained,
			AggregateType: enums.OutboxAggregateVoucher,
			AggregateID:   voucherID,
			Data:          map[string]any{"voucherId": voucherID.String()},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) awardLoyalty(ctx context.Context, tx *gorm.DB, order *models.Order, voucherPurchase bool, result *Result) error {
	pointsPerEuro, err := s.settings.Decimal(ctx, settings.KeyLoyaltyPointsPerEuro)
	if err != nil {
		return err
	}
	award, err := s.loyalty.Award(ctx, tx, loyalty.AwardInput{
		UserID:          order.UserID,
		OrderTotal:      order.Total,
		PointsPerEuro:   pointsPerEuro,
		VoucherPurchase: voucherPurchase,
	})
	if err != nil {
		return err
	}
	result.LoyaltyPoints = award.Points
	return nil
}

func (s *service) emitPaidEvents(ctx context.Context, tx *gorm.DB, order *models.Order, actor *outbox.ActorRef, result *Result) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventOrderPaid,
		AggregateType: enums.OutboxAggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: map[string]any{
			"orderId":     order.ID.String(),
			"orderNumber": order.OrderNumber,
			"userId":      order.UserID.String(),
			"total":       order.Total.String(),
			"points":      result.LoyaltyPoints,
		},
	}); err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventInvoiceRequest,
		AggregateType: enums.OutboxAggregateOrder,
		AggregateID:   order.ID,
		Data: map[string]any{
			"orderId":     order.ID.String(),
			"orderNumber": order.OrderNumber,
		},
	})
}

func (s *service) recordTransition(ctx context.Context, repo orders.Repository, orderID uuid.UUID, from, to enums.OrderStatus, trigger enums.ReconcileTrigger, actor *outbox.ActorRef) error {
	record := &models.OrderStatusHistory{
		ID:         uuid.New(),
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Trigger:    trigger,
	}
	if actor != nil {
		actorID := actor.UserID.String()
		record.Actor = &actorID
	}
	return repo.CreateStatusHistory(ctx, record)
}

func (s *service) observe(trigger enums.ReconcileTrigger, start time.Time, err error) {
	s.metrics.ObserveDuration(trigger.String(), time.Since(start))
	if err != nil {
		s.metrics.IncFailure(trigger.String())
		return
	}
	s.metrics.IncSuccess(trigger.String())
}
