// Package sqlite stores the customer table in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"paypromise/internal/ledger"
)

const schema = `CREATE TABLE IF NOT EXISTS clientes (
	id                  INTEGER PRIMARY KEY,
	nombre              TEXT NOT NULL,
	deuda_total         TEXT NOT NULL,
	pagos_realizados    TEXT NOT NULL DEFAULT '0',
	monto_prometido     TEXT NOT NULL DEFAULT '0',
	fecha_promesa       TEXT NOT NULL DEFAULT '',
	calificacion_riesgo TEXT NOT NULL DEFAULT 'Baja'
)`

var columns = []string{
	"id",
	"nombre",
	"deuda_total",
	"pagos_realizados",
	"monto_prometido",
	"fecha_promesa",
	"calificacion_riesgo",
}

// Store is a ledger.Store over a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; SQLite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all rows ordered by id. Rows are never deleted outside Save,
// so an empty table means the ledger has never been seeded.
func (s *Store) Load(ctx context.Context) ([]ledger.Customer, error) {
	query, args, err := sq.Select(columns...).From("clientes").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Customer
	for rows.Next() {
		var (
			c                    ledger.Customer
			debt, paid, promised string
			risk                 string
		)
		if err := rows.Scan(&c.ID, &c.Name, &debt, &paid, &promised, &c.PromiseDate, &risk); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if c.TotalDebt, err = decimal.NewFromString(debt); err != nil {
			return nil, fmt.Errorf("customer %d deuda_total: %w", c.ID, err)
		}
		if c.PaymentsMade, err = decimal.NewFromString(paid); err != nil {
			return nil, fmt.Errorf("customer %d pagos_realizados: %w", c.ID, err)
		}
		if c.PromisedAmount, err = decimal.NewFromString(promised); err != nil {
			return nil, fmt.Errorf("customer %d monto_prometido: %w", c.ID, err)
		}
		c.Risk = ledger.Risk(risk)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ledger.ErrUninitialized
	}
	return out, nil
}

// Save replaces the table contents inside one transaction.
func (s *Store) Save(ctx context.Context, customers []ledger.Customer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clientes"); err != nil {
		return fmt.Errorf("clear customers: %w", err)
	}

	if len(customers) > 0 {
		insert := sq.Insert("clientes").Columns(columns...)
		for _, c := range customers {
			insert = insert.Values(
				c.ID,
				c.Name,
				c.TotalDebt.String(),
				c.PaymentsMade.String(),
				c.PromisedAmount.String(),
				c.PromiseDate,
				string(c.Risk),
			)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert customers: %w", err)
		}
	}

	return tx.Commit()
}
