package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	u := User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: passwordHash}
	err := r.DB.QueryRow(ctx, `INSERT INTO users(id, username, email, password_hash)
	                           VALUES ($1, $2, $3, $4)
	                           RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `SELECT id, username, email, password_hash, created_at
	                           FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
