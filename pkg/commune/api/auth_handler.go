package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/commune-dev/commune/pkg/commune"
)

// AuthHandler handles account registration and credential checks using
// pkg/commune
type AuthHandler struct {
	service commune.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service commune.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Routes returns the routes for accounts
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	return r
}

// LoginRequest is the request body for a credential check
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates an account together with its initial user profile
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req commune.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Password == "" {
		http.Error(w, "Name and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		if !commune.IsConflict(err) {
			slog.Error("Failed to register account", "name", req.Name, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Account registered", "name", user.Name)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

// Login checks credentials and echoes the outcome. No session or token is
// issued; the response only says whether the pair matched.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		slog.Error("Failed to check credentials", "name", req.Name, "error", err)
		writeError(w, r, err)
		return
	}

	if !result.OK {
		render.Status(r, http.StatusUnauthorized)
	}
	render.JSON(w, r, result)
}
