package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v72"

	"paypromise/internal/ledger"
	"paypromise/internal/payments"
)

type PaymentLinker interface {
	CreateLink(ctx context.Context, c ledger.Customer) (payments.Link, error)
}

// HandleCreatePaymentLink issues a Stripe payment link for the customer's
// current promise.
func HandleCreatePaymentLink(l CustomerLedger, linker PaymentLinker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			writeError(w, "invalid customer id", err)
			return
		}

		c, err := l.Get(r.Context(), id)
		if err != nil {
			writeError(w, "failed to load customer", err)
			return
		}

		link, err := linker.CreateLink(r.Context(), c)
		if err != nil {
			handleStripeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, link)
	})
}

func handleStripeError(w http.ResponseWriter, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			writeErrorResponse(w, http.StatusBadRequest, "stripe rejected the request", err)
		default:
			writeErrorResponse(w, http.StatusBadGateway, "failed to create payment link", err)
		}
		return
	}
	writeError(w, "failed to create payment link", err)
}
