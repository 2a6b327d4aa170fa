package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msmelab/go-commerce/internal/expenses"
)

type ExpenseStore interface {
	Create(ctx context.Context, userID, category string, amountCents int, description string) (expenses.Expense, error)
	ListForUser(ctx context.Context, userID string) ([]expenses.Expense, error)
}

type ExpensesHandler struct {
	Expenses ExpenseStore
	Tokens   TokenVerifier
}

func (h *ExpensesHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Tokens))
		r.Post("/api/expenses", h.create)
		r.Get("/api/expenses", h.list)
	})
}

func (h *ExpensesHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var req CreateExpenseReq
	if !decodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e, err := h.Expenses.Create(ctx, userID, req.Category, req.AmountCents, req.Description)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *ExpensesHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	es, err := h.Expenses.ListForUser(ctx, userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if es == nil {
		es = []expenses.Expense{}
	}
	writeJSON(w, http.StatusOK, es)
}
