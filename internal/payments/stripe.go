package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"paypromise/internal/ledger"
)

var ErrNoPromise = errors.New("customer has no promised amount")

type Link struct {
	PaymentURL    string `json:"payment_url"`
	PaymentLinkID string `json:"payment_link_id"`
	CustomerID    int64  `json:"customer_id"`
}

// Stripe creates a one-off payment link for a customer's promised amount.
type Stripe struct {
	api         *client.API
	currency    string
	redirectURL string
}

// NewStripe uses the globally registered Stripe backends, which tests
// replace with stripe.SetBackend.
func NewStripe(key, currency, redirectURL string) *Stripe {
	return &Stripe{
		api:         client.New(key, nil),
		currency:    currency,
		redirectURL: redirectURL,
	}
}

func (s *Stripe) CreateLink(ctx context.Context, c ledger.Customer) (Link, error) {
	if !c.PromisedAmount.IsPositive() {
		return Link{}, ErrNoPromise
	}

	productParams := &stripe.ProductParams{
		Name: stripe.String(fmt.Sprintf("Pago de deuda - %s", c.Name)),
	}
	productParams.Context = ctx
	prod, err := s.api.Products.New(productParams)
	if err != nil {
		return Link{}, fmt.Errorf("failed to create stripe product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(s.currency),
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(minorUnits(c.PromisedAmount)),
	}
	priceParams.Context = ctx
	p, err := s.api.Prices.New(priceParams)
	if err != nil {
		return Link{}, fmt.Errorf("failed to create stripe price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(p.ID),
				Quantity: stripe.Int64(1),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if s.redirectURL != "" {
		linkParams.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String("redirect"),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(s.redirectURL),
			},
		}
	}
	linkParams.Context = ctx
	linkParams.AddMetadata("customer_id", strconv.FormatInt(c.ID, 10))
	linkParams.AddMetadata("promise_date", c.PromiseDate)

	link, err := s.api.PaymentLinks.New(linkParams)
	if err != nil {
		return Link{}, fmt.Errorf("failed to create payment link: %w", err)
	}

	return Link{
		PaymentURL:    link.URL,
		PaymentLinkID: link.ID,
		CustomerID:    c.ID,
	}, nil
}

// minorUnits converts an amount to cents, rounding half away from zero.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
