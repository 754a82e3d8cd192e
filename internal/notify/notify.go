package notify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"paypromise/internal/ledger"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMS alerts a collections supervisor by text message when a promise is
// rated high risk.
type SMS struct {
	api  messageCreator
	from string
	to   string
}

func NewSMS(accountSID, authToken, from, to string) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMS{api: client.Api, from: from, to: to}
}

func AlertText(name string, amount decimal.Decimal, date string) string {
	return fmt.Sprintf("Promesa de riesgo Alto: %s prometió $%s para %s", name, amount.String(), date)
}

func (s *SMS) HighRisk(ctx context.Context, c ledger.Customer, amount decimal.Decimal, date string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(s.to)
	params.SetFrom(s.from)
	params.SetBody(AlertText(c.Name, amount, date))

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send alert sms: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	zap.L().Info("high risk alert sent", zap.Int64("customer_id", c.ID), zap.String("sid", sid))
	return nil
}

// Noop is used when no SMS provider is configured.
type Noop struct{}

func (Noop) HighRisk(ctx context.Context, c ledger.Customer, amount decimal.Decimal, date string) error {
	zap.L().Debug("high risk alert skipped", zap.Int64("customer_id", c.ID))
	return nil
}
