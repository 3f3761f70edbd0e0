package http

import (
	"context"
	"net/http"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/service"
)

type AuthService interface {
	Authenticator
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	UpdateProfile(ctx context.Context, userID string, in service.UpdateProfileInput) (*domain.User, error)
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type userData struct {
	User domain.PublicProfile `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "User registered successfully", result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())
	user, err := h.auth.Profile(r.Context(), u.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Profile retrieved successfully", userData{User: user.PublicProfile()})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, _ := userFromContext(r.Context())
	user, err := h.auth.UpdateProfile(r.Context(), u.ID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Profile updated successfully", userData{User: user.PublicProfile()})
}

// Logout is stateless; the client discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, "Logout successful", nil)
}
