package availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/clinic-booking/internal/http/render"
	"github.com/wolfman30/clinic-booking/internal/pagination"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Handler serves doctor availability exceptions. Reads are public, writes
// are mounted behind staff auth.
type Handler struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/doctor-availability", h.List)
	r.Get("/doctor-availability/{id}", h.Get)
}

func (h *Handler) StaffRoutes(r chi.Router) {
	r.Post("/doctor-availability", h.Create)
	r.Put("/doctor-availability/{id}", h.Update)
	r.Delete("/doctor-availability/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := render.Decode(r, &in); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		h.writeError(w, "create availability", err)
		return
	}
	now := h.now().UTC()
	e := &Exception{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.apply(e)
	if err := h.repo.Create(r.Context(), e); err != nil {
		h.writeError(w, "create availability", err)
		return
	}
	h.logger.Info("availability exception created", "id", e.ID, "doctor", e.DoctorName)
	render.Message(w, http.StatusCreated, "Availability saved", "availability", e)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		h.writeError(w, "list availability", err)
		return
	}
	render.JSON(w, http.StatusOK, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get availability", err)
		return
	}
	render.JSON(w, http.StatusOK, e)
}

// Update replaces every field; the body is validated like a create.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := render.Decode(r, &in); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		h.writeError(w, "update availability", err)
		return
	}
	e, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "update availability", err)
		return
	}
	in.apply(e)
	e.UpdatedAt = h.now().UTC()
	if err := h.repo.Update(r.Context(), e); err != nil {
		h.writeError(w, "update availability", err)
		return
	}
	render.Message(w, http.StatusOK, "Updated", "availability", e)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete availability", err)
		return
	}
	render.Message(w, http.StatusOK, "Deleted", "", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		render.FieldError(w, ve.Message, ve.Fields)
	case errors.Is(err, ErrNotFound):
		render.Error(w, http.StatusNotFound, "Not found")
	default:
		h.logger.Error(op+" failed", "error", err)
		render.Error(w, http.StatusInternalServerError, "internal error")
	}
}
