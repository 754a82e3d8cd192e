// Package ledger owns the customer portfolio table and the payment-promise
// risk rule. All reads and writes of the backing store go through a Ledger.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Risk is the credit-risk label stored in the Calificacion_Riesgo column.
type Risk string

const (
	RiskLow  Risk = "Baja"
	RiskHigh Risk = "Alta"

	// RiskMedium only appears in seed data. The promise rule never produces it.
	RiskMedium Risk = "Media"
)

// riskThreshold is the share of the outstanding balance a promise must cover
// to be rated Low.
var riskThreshold = decimal.RequireFromString("0.4")

// Classify rates a promised amount against an outstanding balance.
// The threshold is inclusive: amount == outstanding*0.4 is Low.
func Classify(amount, outstanding decimal.Decimal) Risk {
	if amount.GreaterThanOrEqual(outstanding.Mul(riskThreshold)) {
		return RiskLow
	}
	return RiskHigh
}

// Customer is one row of the portfolio table.
type Customer struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	PaymentsMade   decimal.Decimal `json:"payments_made"`
	PromisedAmount decimal.Decimal `json:"promised_amount"`
	PromiseDate    string          `json:"promise_date"`
	Risk           Risk            `json:"risk_rating"`
}

// Outstanding returns TotalDebt - PaymentsMade. It may be negative when a
// customer has overpaid; callers get the raw difference.
func (c Customer) Outstanding() decimal.Decimal {
	return c.TotalDebt.Sub(c.PaymentsMade)
}

// Seed returns the rows written to an uninitialized store.
func Seed() []Customer {
	return []Customer{
		{
			ID:             1,
			Name:           "Juan Perez",
			TotalDebt:      decimal.NewFromInt(500),
			PaymentsMade:   decimal.Zero,
			PromisedAmount: decimal.Zero,
			Risk:           RiskLow,
		},
		{
			ID:             2,
			Name:           "Maria Garcia",
			TotalDebt:      decimal.NewFromInt(1200),
			PaymentsMade:   decimal.NewFromInt(200),
			PromisedAmount: decimal.Zero,
			Risk:           RiskMedium,
		},
	}
}

func nextID(rows []Customer) int64 {
	var maxID int64
	for _, c := range rows {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID + 1
}
