package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"one18-order-service/internal/auth"
	"one18-order-service/internal/ordering"
	"one18-order-service/pkg/response"
)

// AdminLogin exchanges staff credentials for a bearer token. Lookup
// failure and bad password return the same message.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Email and password are required")
		return
	}

	admin, err := h.Store.AdminByEmail(r.Context(), req.Email)
	if err != nil {
		h.Logger.Error("admin lookup failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Login failed")
		return
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
		return
	}

	ttl := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.IssueAccessToken(admin.ID, admin.Email, admin.Name, h.Config.JWTSecret, ttl)
	if err != nil {
		h.Logger.Error("token signing failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Login failed")
		return
	}

	response.Success(w, map[string]any{
		"token": token,
		"admin": map[string]any{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
	})
}
