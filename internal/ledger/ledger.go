package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Store persists the whole customer table.
type Store interface {
	// Load returns every row in stored order, or ErrUninitialized when the
	// store has never been written.
	Load(ctx context.Context) ([]Customer, error)

	// Save replaces the whole table with rows.
	Save(ctx context.Context, rows []Customer) error
}

// Ledger is the only writer of a Store. Every operation reads the full table,
// mutates it in memory and writes it back while holding mu, so two requests
// in the same process cannot lose each other's update.
type Ledger struct {
	mu    sync.Mutex
	store Store
}

// New returns a Ledger backed by store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// LoadAll returns all customers, seeding the store on first use.
func (l *Ledger) LoadAll(ctx context.Context) ([]Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load(ctx)
}

// Get returns the customer with the given id.
func (l *Ledger) Get(ctx context.Context, id int64) (Customer, error) {
	rows, err := l.LoadAll(ctx)
	if err != nil {
		return Customer{}, err
	}
	for _, c := range rows {
		if c.ID == id {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

// CreateCustomer appends a new customer with id max+1 and persists the table.
func (l *Ledger) CreateCustomer(ctx context.Context, name string, initialDebt decimal.Decimal) (Customer, error) {
	if strings.TrimSpace(name) == "" {
		return Customer{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if initialDebt.IsNegative() {
		return Customer{}, fmt.Errorf("%w: initial debt must not be negative", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load(ctx)
	if err != nil {
		return Customer{}, err
	}

	c := Customer{
		ID:             nextID(rows),
		Name:           name,
		TotalDebt:      initialDebt,
		PaymentsMade:   decimal.Zero,
		PromisedAmount: decimal.Zero,
		PromiseDate:    "",
		Risk:           RiskLow,
	}
	if err := l.store.Save(ctx, append(rows, c)); err != nil {
		return Customer{}, fmt.Errorf("save customers: %w", err)
	}
	return c, nil
}

// RecordPromise stores a payment promise for id and returns its risk rating.
// The rating is computed from the balance persisted at the time of the call.
// date is stored verbatim.
func (l *Ledger) RecordPromise(ctx context.Context, id int64, amount decimal.Decimal, date string) (Risk, error) {
	if amount.IsNegative() {
		return "", fmt.Errorf("%w: promised amount must not be negative", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load(ctx)
	if err != nil {
		return "", err
	}

	idx := -1
	for i := range rows {
		if rows[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", ErrNotFound
	}

	risk := Classify(amount, rows[idx].Outstanding())
	rows[idx].PromisedAmount = amount
	rows[idx].PromiseDate = date
	rows[idx].Risk = risk

	if err := l.store.Save(ctx, rows); err != nil {
		return "", fmt.Errorf("save customers: %w", err)
	}
	return risk, nil
}

func (l *Ledger) load(ctx context.Context) ([]Customer, error) {
	rows, err := l.store.Load(ctx)
	if errors.Is(err, ErrUninitialized) {
		if err := l.store.Save(ctx, Seed()); err != nil {
			return nil, fmt.Errorf("seed customers: %w", err)
		}
		rows, err = l.store.Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	return rows, nil
}
