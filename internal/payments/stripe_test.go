package payments

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/form"

	"paypromise/internal/ledger"
)

type MockBackend struct {
	unitAmount int64
	metadata   map[string]string
}

func (mb *MockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	switch path {
	case "/v1/products":
		*(v.(*stripe.Product)) = stripe.Product{ID: "prod_1234567890"}
	case "/v1/prices":
		mb.unitAmount = *params.(*stripe.PriceParams).UnitAmount
		*(v.(*stripe.Price)) = stripe.Price{ID: "price_1234567890"}
	case "/v1/payment_links":
		mb.metadata = params.(*stripe.PaymentLinkParams).Metadata
		*(v.(*stripe.PaymentLink)) = stripe.PaymentLink{
			ID:  "plink_1234567890",
			URL: "https://stripe.com/pay/cs_test_1234567890",
		}
	}
	return nil
}

func (mb *MockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (mb *MockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (mb *MockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func (mb *MockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func TestCreateLink(t *testing.T) {
	mockBackend := &MockBackend{}
	stripe.SetBackend(stripe.APIBackend, mockBackend)
	defer stripe.SetBackend(stripe.APIBackend, nil)

	s := NewStripe("sk_test_1234567890", "usd", "")
	c := ledger.Customer{
		ID:             2,
		Name:           "Maria Garcia",
		PromisedAmount: decimal.RequireFromString("100.505"),
		PromiseDate:    "24/10/2026",
	}

	link, err := s.CreateLink(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}

	if link.PaymentURL != "https://stripe.com/pay/cs_test_1234567890" {
		t.Errorf("unexpected payment URL: %v", link.PaymentURL)
	}
	if link.PaymentLinkID != "plink_1234567890" || link.CustomerID != 2 {
		t.Errorf("unexpected link: %+v", link)
	}
	if mockBackend.unitAmount != 10051 {
		t.Errorf("unit amount = %d, want 10051", mockBackend.unitAmount)
	}
	if mockBackend.metadata["customer_id"] != "2" || mockBackend.metadata["promise_date"] != "24/10/2026" {
		t.Errorf("metadata = %v", mockBackend.metadata)
	}
}

func TestCreateLinkWithoutPromise(t *testing.T) {
	s := NewStripe("sk_test_1234567890", "usd", "")
	_, err := s.CreateLink(context.Background(), ledger.Customer{ID: 1, PromisedAmount: decimal.Zero})
	if !errors.Is(err, ErrNoPromise) {
		t.Errorf("CreateLink() error = %v, want ErrNoPromise", err)
	}
}
