package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/ratelimit"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
)

// AuthHandler serves registration, login and the current-user endpoint.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.KeyedLimiter
}

// NewAuthHandler creates an AuthHandler. loginLimiter may be nil.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.KeyedLimiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// Register godoc
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tokens)
}

// Login godoc
// POST /api/auth/login
//
// Failed attempts count against the caller's IP. A successful login
// clears the bucket.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	key := "login:" + ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(key) {
		w.Header().Set("Retry-After", strconv.Itoa(h.loginLimiter.RetryAfterSeconds(key)))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(key)
	}
	pkg.JSON(w, http.StatusOK, tokens)
}

// Me godoc
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}
