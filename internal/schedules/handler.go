package schedules

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-booking/internal/http/render"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Handler serves schedule definitions.
type Handler struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/schedule/schedules", h.Create)
	r.Get("/schedule/schedules", h.List)
	r.Get("/schedule/schedules/{appointmentType}", h.Get)
	r.Put("/schedule/schedules/{appointmentType}", h.Update)
	r.Delete("/schedule/schedules/{appointmentType}", h.Delete)
}

// Create handles POST /schedule/schedules. An existing schedule for the same
// appointment type is replaced.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var def Definition
	if err := render.Decode(r, &def); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	def.Normalize()
	if err := def.Validate(); err != nil {
		h.writeError(w, "save schedule", err)
		return
	}
	now := h.now()
	def.CreatedAt, def.UpdatedAt = now, now
	if err := h.store.Save(r.Context(), &def); err != nil {
		h.writeError(w, "save schedule", err)
		return
	}
	h.logger.Info("schedule saved", "appointment_type", def.AppointmentType, "days", len(def.Days))
	render.Message(w, http.StatusCreated, "Schedule saved", "schedule", def)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.store.List(r.Context())
	if err != nil {
		h.writeError(w, "list schedules", err)
		return
	}
	if defs == nil {
		defs = []Definition{}
	}
	render.JSON(w, http.StatusOK, defs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	def, err := h.store.Get(r.Context(), chi.URLParam(r, "appointmentType"))
	if err != nil {
		h.writeError(w, "get schedule", err)
		return
	}
	render.JSON(w, http.StatusOK, def)
}

// Update handles PUT /schedule/schedules/{appointmentType}. The path wins over
// any appointmentType in the body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var def Definition
	if err := render.Decode(r, &def); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	def.AppointmentType = chi.URLParam(r, "appointmentType")
	def.Normalize()
	if err := def.Validate(); err != nil {
		h.writeError(w, "update schedule", err)
		return
	}
	def.UpdatedAt = h.now()
	if err := h.store.Replace(r.Context(), &def); err != nil {
		h.writeError(w, "update schedule", err)
		return
	}
	render.Message(w, http.StatusOK, "Updated", "schedule", def)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "appointmentType")); err != nil {
		h.writeError(w, "delete schedule", err)
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
		render.Error(w, http.StatusNotFound, "Schedule not found")
	default:
		h.logger.Error(op+" failed", "error", err)
		render.Error(w, http.StatusInternalServerError, "internal error")
	}
}
