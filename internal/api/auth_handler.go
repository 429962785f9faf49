package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/learnloop/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /api/auth/login
//
// Demo-grade credential check against seeded users. Unknown email and wrong
// password produce the same response so the endpoint does not leak which
// accounts exist.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "invalid_credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) != 1 {
		http.Error(w, "invalid_credentials", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, user.Safe())
}

// POST /api/auth/forgot-password
//
// Always the same message, regardless of whether the account exists.
func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}
