package staff

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-booking/internal/http/render"
	"github.com/wolfman30/clinic-booking/internal/pagination"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

const storeUnavailableMessage = "Database connection error. Please try again later."

// Handler serves login and staff user management.
type Handler struct {
	auth   *AuthService
	users  *UserService
	logger *logging.Logger
}

func NewHandler(auth *AuthService, users *UserService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{auth: auth, users: users, logger: logger}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// AdminRoutes expects to be mounted behind an admin role check.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/users", h.Create)
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Get)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		render.FieldError(w, "Email and password are required", []string{"email", "password"})
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials):
		render.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case errors.Is(err, ErrStoreUnavailable):
		h.logger.Error("login failed", "error", err)
		render.Error(w, http.StatusServiceUnavailable, storeUnavailableMessage)
		return
	default:
		h.logger.Error("login failed", "error", err)
		render.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	render.JSON(w, http.StatusOK, map[string]any{
		"message":   "Login successful",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      session.User,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := render.Decode(r, &in); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, "create user", err)
		return
	}
	render.Message(w, http.StatusCreated, "User created", "user", u)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.users.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		h.writeError(w, "list users", err)
		return
	}
	render.JSON(w, http.StatusOK, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get user", err)
		return
	}
	render.JSON(w, http.StatusOK, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := render.Decode(r, &in); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, "update user", err)
		return
	}
	render.Message(w, http.StatusOK, "User updated successfully", "user", u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete user", err)
		return
	}
	render.Message(w, http.StatusOK, "User deleted successfully", "", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		render.FieldError(w, ve.Message, ve.Fields)
	case errors.Is(err, ErrNotFound):
		render.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrEmailTaken):
		render.Error(w, http.StatusConflict, "Email already in use")
	default:
		h.logger.Error(op+" failed", "error", err)
		render.Error(w, http.StatusInternalServerError, "internal error")
	}
}
