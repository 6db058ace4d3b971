package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/telaprint/telaprint-backend/internal/payments"
	"github.com/telaprint/telaprint-backend/internal/reconcile"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

type stubReconciler struct {
	orderCalls []reconcile.MarkOrderPaidInput
	quoteCalls []reconcile.ConvertQuoteInput
	orderErr   error
	quoteErr   error
}

func (s *stubReconciler) MarkOrderPaid(_ context.Context, input reconcile.MarkOrderPaidInput) (*reconcile.Result, error) {
	s.orderCalls = append(s.orderCalls, input)
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return &reconcile.Result{}, nil
}

func (s *stubReconciler) ConvertQuote(_ context.Context, input reconcile.ConvertQuoteInput) (*reconcile.Result, error) {
	s.quoteCalls = append(s.quoteCalls, input)
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return &reconcile.Result{}, nil
}

func newWebhookService(t *testing.T, reconciler *stubReconciler) *Service {
	t.Helper()
	svc, err := NewService(reconciler, logger.New(logger.Options{Level: zerolog.ErrorLevel}))
	require.NoError(t, err)
	return svc
}

func checkoutCompletedEvent(t *testing.T, metadata map[string]string) *stripe.Event {
	t.Helper()
	session := stripe.CheckoutSession{
		ID:            "cs_test_123",
		Metadata:      metadata,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_456"},
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventRoutesOrderCheckout(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newWebhookService(t, reconciler)
	orderID := uuid.New()

	event := checkoutCompletedEvent(t, map[string]string{payments.MetadataOrderID: orderID.String()})
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, reconciler.orderCalls, 1)
	require.Empty(t, reconciler.quoteCalls)
	call := reconciler.orderCalls[0]
	require.Equal(t, orderID, call.OrderID)
	require.Equal(t, enums.ReconcileTriggerWebhook, call.Trigger)
	require.NotNil(t, call.PaymentReference)
	require.Equal(t, "pi_test_456", *call.PaymentReference)
}

func TestHandleEventRoutesQuoteCheckout(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newWebhookService(t, reconciler)
	quoteID := uuid.New()

	event := checkoutCompletedEvent(t, map[string]string{payments.MetadataQuoteID: quoteID.String()})
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, reconciler.quoteCalls, 1)
	require.Empty(t, reconciler.orderCalls)
	call := reconciler.quoteCalls[0]
	require.Equal(t, quoteID, call.QuoteID)
	require.Equal(t, enums.ReconcileTriggerQuoteWebhook, call.Trigger)
}

func TestHandleEventUnknownOrderIsDropped(t *testing.T) {
	reconciler := &stubReconciler{orderErr: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	svc := newWebhookService(t, reconciler)

	event := checkoutCompletedEvent(t, map[string]string{payments.MetadataOrderID: uuid.NewString()})
	require.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestHandleEventReconcileFailurePropagates(t *testing.T) {
	reconciler := &stubReconciler{orderErr: pkgerrors.New(pkgerrors.CodeStateConflict, "order already reached a terminal state")}
	svc := newWebhookService(t, reconciler)

	event := checkoutCompletedEvent(t, map[string]string{payments.MetadataOrderID: uuid.NewString()})
	err := svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}

func TestHandleEventInvalidMetadataRejected(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newWebhookService(t, reconciler)

	event := checkoutCompletedEvent(t, map[string]string{payments.MetadataOrderID: "not-a-uuid"})
	err := svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	require.Empty(t, reconciler.orderCalls)
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newWebhookService(t, reconciler)

	event := &stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	require.Empty(t, reconciler.orderCalls)
	require.Empty(t, reconciler.quoteCalls)
}

type fakeIdempotencyStore struct {
	keys map[string]string
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = map[string]string{}
	}
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = "1"
	_ = value
	return true, nil
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func TestIdempotencyGuardMarksAndClears(t *testing.T) {
	store := &fakeIdempotencyStore{}
	guard, err := NewIdempotencyGuard(store, time.Minute, "stripe")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, guard.Delete(context.Background(), "evt_1"))
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.False(t, seen)
}
