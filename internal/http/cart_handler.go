package http

import (
	"context"
	"net/http"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	AddItem(ctx context.Context, owner string, in service.AddItemInput) (*domain.CartView, error)
	GetCart(ctx context.Context, owner string) (*domain.CartView, error)
	UpdateItemQuantity(ctx context.Context, owner, itemID string, quantity int) (*domain.CartView, error)
	RemoveItem(ctx context.Context, owner, itemID string) (*domain.CartView, error)
	ClearCart(ctx context.Context, owner string) (*domain.CartView, error)
	Count(ctx context.Context, owner string) (int, error)
}

type CartHandler struct {
	carts CartService
	// anonymousOwner is used when the request names no owner at all.
	anonymousOwner string
}

func NewCartHandler(carts CartService, anonymousOwner string) *CartHandler {
	return &CartHandler{
		carts:          carts,
		anonymousOwner: anonymousOwner,
	}
}

type AddToCartRequestDTO struct {
	ProductID string   `json:"productId"`
	Quantity  *int     `json:"quantity"`
	Variant   string   `json:"variant"`
	Price     *float64 `json:"price"`
	UserID    string   `json:"userId"`
}

type UpdateCartItemRequestDTO struct {
	Quantity int    `json:"quantity"`
	UserID   string `json:"userId"`
}

type cartData struct {
	Cart *domain.CartView `json:"cart"`
}

type countData struct {
	Count int `json:"count"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	owner, err := h.owner(r, req.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), owner, service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  quantity,
		Variant:   req.Variant,
		Price:     req.Price,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Item added to cart successfully", cartData{Cart: cart})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, err := h.owner(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}

	message := "Cart retrieved successfully"
	if cart.ID == "" {
		message = "Cart is empty"
	}
	respondOK(w, http.StatusOK, message, cartData{Cart: cart})
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	owner, err := h.owner(r, req.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), owner, chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Cart item updated successfully", cartData{Cart: cart})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, err := h.owner(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), owner, chi.URLParam(r, "itemId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Item removed from cart successfully", cartData{Cart: cart})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, err := h.owner(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.ClearCart(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Cart cleared successfully", cartData{Cart: cart})
}

func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	owner, err := h.owner(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	n, err := h.carts.Count(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Cart count retrieved successfully", countData{Count: n})
}

// owner resolves whose cart a request addresses: the authenticated user,
// then an explicit userId (query, then body), then the anonymous owner.
func (h *CartHandler) owner(r *http.Request, bodyUserID string) (string, error) {
	if u, ok := userFromContext(r.Context()); ok {
		return u.ID, nil
	}
	if id := r.URL.Query().Get("userId"); id != "" {
		return id, nil
	}
	if bodyUserID != "" {
		return bodyUserID, nil
	}
	if h.anonymousOwner != "" {
		return h.anonymousOwner, nil
	}
	return "", service.NewValidationError("userId is required",
		service.FieldError{Field: "userId", Message: "userId is required"})
}
