package dashboard

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-booking/internal/http/render"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

type statsSource interface {
	Stats(ctx context.Context, year int) (*Stats, error)
}

type Handler struct {
	stats  statsSource
	logger *logging.Logger
}

func NewHandler(stats statsSource, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{stats: stats, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.Get)
}

// Get handles GET /dashboard?year=YYYY.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			render.FieldError(w, "year must be a four digit number", []string{"year"})
			return
		}
		year = y
	}

	st, err := h.stats.Stats(r.Context(), year)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("dashboard stats failed", "error", err)
		render.JSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Error fetching dashboard data",
		})
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": st.Summary,
		"charts":  st.Charts,
	})
}
