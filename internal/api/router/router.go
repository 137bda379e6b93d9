package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/availability"
	"github.com/wolfman30/clinic-booking/internal/dashboard"
	"github.com/wolfman30/clinic-booking/internal/http/render"
	httpmiddleware "github.com/wolfman30/clinic-booking/internal/http/middleware"
	"github.com/wolfman30/clinic-booking/internal/schedules"
	"github.com/wolfman30/clinic-booking/internal/staff"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Appointments       *appointments.Handler
	Schedules          *schedules.Handler
	Availability       *availability.Handler
	Staff              *staff.Handler
	Dashboard          *dashboard.Handler
	Authenticator      httpmiddleware.Authenticator
	RateLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	HealthChecks       map[string]HealthCheck
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured. Booking routes
// live under /api; /health and /metrics stay at the root.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			if cfg.RateLimiter != nil {
				public.Use(cfg.RateLimiter.Middleware)
			}
			if cfg.Appointments != nil {
				cfg.Appointments.PublicRoutes(public)
			}
			if cfg.Staff != nil {
				cfg.Staff.PublicRoutes(public)
			}
			if cfg.Availability != nil {
				cfg.Availability.PublicRoutes(public)
			}
		})

		if cfg.Authenticator == nil {
			return
		}
		api.Group(func(staffOnly chi.Router) {
			staffOnly.Use(httpmiddleware.StaffJWT(cfg.Authenticator, cfg.Logger))
			if cfg.Appointments != nil {
				cfg.Appointments.StaffRoutes(staffOnly)
			}
			if cfg.Schedules != nil {
				cfg.Schedules.Routes(staffOnly)
			}
			if cfg.Availability != nil {
				cfg.Availability.StaffRoutes(staffOnly)
			}
			if cfg.Dashboard != nil {
				cfg.Dashboard.Routes(staffOnly)
			}
		})
		api.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.StaffJWT(cfg.Authenticator, cfg.Logger))
			admin.Use(httpmiddleware.RequireRole(staff.RoleAdmin))
			if cfg.Staff != nil {
				cfg.Staff.AdminRoutes(admin)
			}
		})
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			render.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": failed})
			return
		}
		render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
