package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msmelab/go-commerce/internal/auth"
	"github.com/msmelab/go-commerce/internal/users"
)

type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type TokenMinter interface {
	Mint(userID string) (string, error)
}

type AuthHandler struct {
	Users  UserStore
	Tokens TokenMinter
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if !decodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	u, err := h.Users.Create(ctx, req.Username, req.Email, hash)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if !decodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, users.ErrNotFound) || (err == nil && !auth.CheckPassword(u.PasswordHash, req.Password)) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	token, err := h.Tokens.Mint(u.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
