package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/msmelab/go-commerce/internal/inventory"
	"github.com/msmelab/go-commerce/internal/redisx"
)

type Catalog interface {
	List(ctx context.Context) ([]inventory.Product, error)
	Create(ctx context.Context, name string, priceCents, stock int) (inventory.Product, error)
}

type ProductsHandler struct {
	Catalog Catalog
	Redis   *redis.Client // optional list cache
	Tokens  TokenVerifier
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/api/products", h.list)
	r.With(Authenticate(h.Tokens)).Post("/api/products", h.create)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyProductList).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	ps, err := h.Catalog.List(ctx)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(ps); err == nil {
			_ = h.Redis.Set(ctx, redisx.KeyProductList, b, redisx.TTLProductList).Err()
		}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductReq
	if !decodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Catalog.Create(ctx, req.Name, req.PriceCents, req.Stock)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.KeyProductList).Err()
	}
	writeJSON(w, http.StatusCreated, p)
}
