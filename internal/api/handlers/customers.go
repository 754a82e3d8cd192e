package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paypromise/internal/ledger"
	"paypromise/internal/metrics"
)

type CustomerLedger interface {
	LoadAll(ctx context.Context) ([]ledger.Customer, error)
	Get(ctx context.Context, id int64) (ledger.Customer, error)
	CreateCustomer(ctx context.Context, name string, initialDebt decimal.Decimal) (ledger.Customer, error)
	RecordPromise(ctx context.Context, id int64, amount decimal.Decimal, date string) (ledger.Risk, error)
}

var _ CustomerLedger = (*ledger.Ledger)(nil)

type AlertNotifier interface {
	HighRisk(ctx context.Context, c ledger.Customer, amount decimal.Decimal, date string) error
}

type CustomerView struct {
	ledger.Customer
	Outstanding decimal.Decimal `json:"outstanding"`
}

type CreateCustomerRequest struct {
	Name        string          `json:"name"`
	InitialDebt decimal.Decimal `json:"initial_debt"`
}

type RecordPromiseRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type RecordPromiseResponse struct {
	CustomerID int64       `json:"customer_id"`
	Risk       ledger.Risk `json:"risk"`
}

func HandleListCustomers(l CustomerLedger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows, err := l.LoadAll(r.Context())
		if err != nil {
			writeError(w, "failed to load customers", err)
			return
		}

		views := make([]CustomerView, 0, len(rows))
		for _, c := range rows {
			views = append(views, CustomerView{Customer: c, Outstanding: c.Outstanding()})
		}
		writeJSON(w, http.StatusOK, views)
	})
}

func HandleGetCustomer(l CustomerLedger) http.Handler {
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
		writeJSON(w, http.StatusOK, CustomerView{Customer: c, Outstanding: c.Outstanding()})
	})
}

func HandleCreateCustomer(l CustomerLedger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateCustomerRequest
		if err := decode(r, &req); err != nil {
			writeError(w, "invalid request body", err)
			return
		}

		c, err := l.CreateCustomer(r.Context(), req.Name, req.InitialDebt)
		if err != nil {
			writeError(w, "failed to create customer", err)
			return
		}
		metrics.CustomersCreated.Inc()

		writeJSON(w, http.StatusCreated, CustomerView{Customer: c, Outstanding: c.Outstanding()})
	})
}

func HandleRecordPromise(l CustomerLedger, notifier AlertNotifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			writeError(w, "invalid customer id", err)
			return
		}

		var req RecordPromiseRequest
		if err := decode(r, &req); err != nil {
			writeError(w, "invalid request body", err)
			return
		}

		risk, err := l.RecordPromise(r.Context(), id, req.Amount, req.Date)
		if err != nil {
			writeError(w, "failed to record promise", err)
			return
		}
		metrics.PromisesRecorded.WithLabelValues(string(risk)).Inc()

		if risk == ledger.RiskHigh && notifier != nil {
			if c, err := l.Get(r.Context(), id); err == nil {
				if err := notifier.HighRisk(r.Context(), c, req.Amount, req.Date); err != nil {
					zap.L().Warn("high risk alert failed", zap.Int64("customer_id", id), zap.Error(err))
				}
			}
		}

		writeJSON(w, http.StatusOK, RecordPromiseResponse{CustomerID: id, Risk: risk})
	})
}
