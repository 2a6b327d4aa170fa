package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps products in Postgres. Reserve locks the product row for the
// duration of its check-and-decrement transaction, so concurrent reservations
// on one product are serialized by the row lock and the reported availability
// always matches the stock the decision was made on.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Get(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := s.DB.QueryRow(ctx, `SELECT id, name, price_cents, stock, created_at, updated_at
	                           FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PGStore) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock the row so the availability read and the decrement see the same
	// stock value
	var stock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	if stock < qty {
		return 0, &InsufficientStockError{ProductID: productID, Available: stock, Requested: qty}
	}

	if _, err := tx.Exec(ctx, `UPDATE products
	                           SET stock = stock - $2, updated_at = now()
	                           WHERE id = $1`, productID, qty); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return stock - qty, nil
}

func (s *PGStore) Release(ctx context.Context, productID string, qty int) error {
	ct, err := s.DB.Exec(ctx, `UPDATE products
	                           SET stock = stock + $2, updated_at = now()
	                           WHERE id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}

// Catalog operations, outside the Store contract.

func (s *PGStore) List(ctx context.Context) ([]Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, price_cents, stock, created_at, updated_at
	                              FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, name string, priceCents, stock int) (Product, error) {
	id := uuid.NewString()
	var p Product
	err := s.DB.QueryRow(ctx, `INSERT INTO products(id, name, price_cents, stock)
	                           VALUES ($1, $2, $3, $4)
	                           RETURNING id, name, price_cents, stock, created_at, updated_at`,
		id, name, priceCents, stock).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}
