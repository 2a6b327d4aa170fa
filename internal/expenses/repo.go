package expenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	AmountCents int       `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, userID, category string, amountCents int, description string) (Expense, error) {
	e := Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Category:    category,
		AmountCents: amountCents,
		Description: description,
	}
	err := r.DB.QueryRow(ctx, `INSERT INTO expenses(id, user_id, category, amount_cents, description)
	                           VALUES ($1, $2, $3, $4, $5)
	                           RETURNING created_at`,
		e.ID, e.UserID, e.Category, e.AmountCents, e.Description).Scan(&e.CreatedAt)
	if err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (r *Repo) ListForUser(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, user_id, category, amount_cents, description, created_at
	                              FROM expenses WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.AmountCents, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
