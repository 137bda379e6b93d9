package appointments

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-booking/internal/http/render"
	"github.com/wolfman30/clinic-booking/internal/pagination"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Handler exposes the appointment workflow over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// PublicRoutes mounts the patient-facing booking endpoint.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/appointments/new", h.Create)
}

// StaffRoutes mounts the review endpoints. Callers wrap them in auth.
func (h *Handler) StaffRoutes(r chi.Router) {
	r.Get("/appointments/new", h.ListPending)
	r.Get("/appointments/new/{id}", h.GetPending)
	r.Put("/appointments/new/{id}", h.UpdatePending)
	r.Delete("/appointments/new/{id}", h.DeletePending)
	r.Post("/appointments/new/{id}/confirm", h.Confirm)

	r.Get("/appointments/accepted", h.ListConfirmed)
	r.Get("/appointments/accepted/{id}", h.GetConfirmed)
	r.Put("/appointments/accepted/{id}", h.UpdateConfirmed)
	r.Delete("/appointments/accepted/{id}", h.DeleteConfirmed)
}

// Create handles POST /appointments/new
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "create appointment", err)
		return
	}
	render.Message(w, http.StatusCreated, "Appointment created (pending confirmation)", "appointment", appt)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListPending(r.Context(), pagination.FromRequest(r))
	if err != nil {
		h.writeError(w, r, "list pending appointments", err)
		return
	}
	render.JSON(w, http.StatusOK, res)
}

func (h *Handler) ListConfirmed(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListConfirmed(r.Context(), pagination.FromRequest(r))
	if err != nil {
		h.writeError(w, r, "list confirmed appointments", err)
		return
	}
	render.JSON(w, http.StatusOK, res)
}

func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.GetPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get pending appointment", err)
		return
	}
	render.JSON(w, http.StatusOK, appt)
}

func (h *Handler) GetConfirmed(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.GetConfirmed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get confirmed appointment", err)
		return
	}
	render.JSON(w, http.StatusOK, appt)
}

// Confirm handles POST /appointments/new/{id}/confirm. The body is optional.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := render.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, "confirm appointment", err)
		return
	}
	render.Message(w, http.StatusOK, "Appointment confirmed", "appointment", appt)
}

func (h *Handler) UpdatePending(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.service.UpdatePending(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, "update pending appointment", err)
		return
	}
	render.Message(w, http.StatusOK, "Updated", "appointment", appt)
}

func (h *Handler) UpdateConfirmed(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.service.UpdateConfirmed(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, "update confirmed appointment", err)
		return
	}
	render.Message(w, http.StatusOK, "Updated", "appointment", appt)
}

func (h *Handler) DeletePending(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePending(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, "delete pending appointment", err)
		return
	}
	render.Message(w, http.StatusOK, "Deleted", "", nil)
}

func (h *Handler) DeleteConfirmed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteConfirmed(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, "delete confirmed appointment", err)
		return
	}
	render.Message(w, http.StatusOK, "Deleted", "", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		render.FieldError(w, ve.Message, ve.Fields)
	case errors.Is(err, ErrNotFound):
		render.Error(w, http.StatusNotFound, "Not found")
	default:
		h.logger.WithContext(r.Context()).Error(op+" failed", "error", err)
		render.Error(w, http.StatusInternalServerError, "internal error")
	}
}
