// Package postgres stores the customer table in PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"paypromise/internal/ledger"
)

const schema = `CREATE TABLE IF NOT EXISTS clientes (
	id                  BIGINT PRIMARY KEY,
	nombre              TEXT NOT NULL,
	deuda_total         NUMERIC NOT NULL,
	pagos_realizados    NUMERIC NOT NULL DEFAULT 0,
	monto_prometido     NUMERIC NOT NULL DEFAULT 0,
	fecha_promesa       TEXT NOT NULL DEFAULT '',
	calificacion_riesgo TEXT NOT NULL DEFAULT 'Baja'
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	db *pgxpool.Pool
}

// Open connects to connString, pings the server and applies the schema.
func Open(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: pool}, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// Load returns all rows ordered by id; an empty table is uninitialized.
func (s *Store) Load(ctx context.Context) ([]ledger.Customer, error) {
	query, args, err := psql.Select(
		"id",
		"nombre",
		"deuda_total::text",
		"pagos_realizados::text",
		"monto_prometido::text",
		"fecha_promesa",
		"calificacion_riesgo",
	).From("clientes").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
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
			return nil, err
		}
		if c.PaymentsMade, err = decimal.NewFromString(paid); err != nil {
			return nil, err
		}
		if c.PromisedAmount, err = decimal.NewFromString(promised); err != nil {
			return nil, err
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

// Save replaces the table contents in one transaction. The table lock keeps
// a second process from interleaving its own replace.
func (s *Store) Save(ctx context.Context, customers []ledger.Customer) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "LOCK TABLE clientes IN EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("lock customers: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM clientes"); err != nil {
		return fmt.Errorf("clear customers: %w", err)
	}

	if len(customers) > 0 {
		insert := psql.Insert("clientes").Columns(
			"id",
			"nombre",
			"deuda_total",
			"pagos_realizados",
			"monto_prometido",
			"fecha_promesa",
			"calificacion_riesgo",
		)
		for _, c := range customers {
			insert = insert.Values(
				c.ID,
				c.Name,
				sq.Expr("?::text::numeric", c.TotalDebt.String()),
				sq.Expr("?::text::numeric", c.PaymentsMade.String()),
				sq.Expr("?::text::numeric", c.PromisedAmount.String()),
				c.PromiseDate,
				string(c.Risk),
			)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert customers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}
