package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGLedger struct{ DB *pgxpool.Pool }

func (l *PGLedger) Create(ctx context.Context, o Order) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO orders(id, user_id, status, total_cents, created_at)
	                       VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.UserID, string(o.Status), o.TotalCents, o.CreatedAt)
	if err != nil {
		return err
	}
	for _, ln := range o.Lines {
		_, err = tx.Exec(ctx, `INSERT INTO order_items(order_id, product_id, qty, price_cents)
		                       VALUES ($1, $2, $3, $4)`,
			o.ID, ln.ProductID, ln.Quantity, ln.PriceCents)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (l *PGLedger) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := l.DB.Query(ctx, `SELECT id, user_id, status, total_cents, created_at
	                              FROM orders WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	byID := map[string]int{}
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		byID[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lineRows, err := l.DB.Query(ctx, `SELECT oi.order_id, oi.product_id, oi.qty, oi.price_cents
	                                  FROM order_items oi
	                                  JOIN orders o ON o.id = oi.order_id
	                                  WHERE o.user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var orderID string
		var ln OrderLine
		if err := lineRows.Scan(&orderID, &ln.ProductID, &ln.Quantity, &ln.PriceCents); err != nil {
			return nil, err
		}
		if i, ok := byID[orderID]; ok {
			out[i].Lines = append(out[i].Lines, ln)
		}
	}
	return out, lineRows.Err()
}
