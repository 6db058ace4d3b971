package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
)

// Metadata keys the webhook router uses to find the aggregate a checkout
// session paid for.
const (
	MetadataOrderID = "order_id"
	MetadataQuoteID = "quote_id"
)

var centsFactor = decimal.NewFromInt(100)

// Linker turns orders and quotes into hosted checkout URLs.
type Linker interface {
	OrderCheckoutLink(ctx context.Context, order *models.Order) (string, error)
	QuoteCheckoutLink(ctx context.Context, quote *models.Quote) (string, error)
}

type linker struct {
	client     StripeCheckoutClient
	successURL string
	cancelURL  string
}

// NewLinker builds the checkout link generator.
func NewLinker(client StripeCheckoutClient, successURL, cancelURL string) (Linker, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe checkout client required")
	}
	if successURL == "" || cancelURL == "" {
		return nil, fmt.Errorf("checkout redirect urls required")
	}
	return &linker{client: client, successURL: successURL, cancelURL: cancelURL}, nil
}

func (l *linker) OrderCheckoutLink(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	params := l.sessionParams(
		fmt.Sprintf("Pedido #%d", order.OrderNumber),
		order.Total,
	)
	params.AddMetadata(MetadataOrderID, order.ID.String())
	return l.create(ctx, params)
}

func (l *linker) QuoteCheckoutLink(ctx context.Context, quote *models.Quote) (string, error) {
	if quote == nil || quote.Total == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "quote has no computed total")
	}
	params := l.sessionParams(
		fmt.Sprintf("Presupuesto %s (%s m)", quote.ID.String()[:8], quote.EstimatedMeters.String()),
		*quote.Total,
	)
	params.AddMetadata(MetadataQuoteID, quote.ID.String())
	return l.create(ctx, params)
}

func (l *linker) sessionParams(label string, total decimal.Decimal) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(l.successURL),
		CancelURL:  stripe.String(l.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyEUR)),
					UnitAmount: stripe.Int64(total.Mul(centsFactor).Round(0).IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(label),
					},
				},
			},
		},
	}
}

func (l *linker) create(ctx context.Context, params *stripe.CheckoutSessionParams) (string, error) {
	session, err := l.client.CreateSession(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating checkout session")
	}
	if session == nil || session.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session has no url")
	}
	return session.URL, nil
}
