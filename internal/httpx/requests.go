package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterReq struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateProductReq struct {
	Name       string `json:"name" validate:"required"`
	PriceCents int    `json:"price" validate:"gte=0"`
	Stock      int    `json:"stock" validate:"gte=0"`
}

type OrderItemReq struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderReq struct {
	Products []OrderItemReq `json:"products" validate:"required,min=1,dive"`
}

type CreateExpenseReq struct {
	Category    string `json:"category" validate:"required"`
	AmountCents int    `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}

// decodeValid decodes the body into v and validates it; on failure it writes
// a 400 and reports false.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
