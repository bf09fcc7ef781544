package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"hospital-management-api/internal/config"
	"hospital-management-api/internal/metrics"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/notify"
	"hospital-management-api/internal/store"
)

// RouterDeps bundles everything NewRouter wires together.
type RouterDeps struct {
	Store       store.Store
	Mailer      notify.EmailSender
	Config      *config.Config
	Logger      *slog.Logger
	RateLimiter *middleware.RateLimiter
	Registry    *prometheus.Registry
}

// NewRouter builds the full route tree.
//
// Middleware order: Recovery → CORS → Metrics → Logging, then per
// group: RateLimit on the auth endpoints, Auth + RequireRole on the
// protected ones.
func NewRouter(deps *RouterDeps) http.Handler {
	h := New(deps.Store, deps.Mailer, deps.Config)

	authGate := middleware.Auth(deps.Config.JWTSecret, deps.Store)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r := chi.NewRouter()
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(deps.Config.CORSAllowedOrigin))
	if deps.Registry != nil {
		r.Use(metrics.NewCollector(deps.Registry).Middleware())
		r.Handle("/metrics", metrics.Handler(deps.Registry))
	}
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware())
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/create-first-admin", h.CreateFirstAdmin)
			r.Get("/verify-doctor-invite/{token}", h.VerifyInvite)
			r.Post("/complete-doctor-registration", h.CompleteRegistration)

			r.Group(func(r chi.Router) {
				r.Use(authGate, adminOnly)
				r.Post("/invite-doctor", h.InviteDoctor)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authGate)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Get("/approved-doctors", h.ListApprovedDoctors)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", h.ListUsers)
				r.Get("/pending-doctors", h.ListPendingDoctors)
				r.Delete("/{id}", h.DeleteUser)
				r.Patch("/approve-doctor/{doctorId}", h.ApproveDoctor)
				r.Patch("/promote-to-admin/{userId}", h.PromoteToAdmin)
			})
		})

		r.Route("/book", func(r chi.Router) {
			r.Use(authGate)

			r.Post("/", h.CreateAppointment)
			r.Get("/my-appointments", h.ListMine)
			r.With(adminOnly).Get("/", h.ListAllAppointments)
			r.Get("/{id}", h.GetAppointment)
			r.With(middleware.RequireRole(model.RoleDoctor, model.RoleAdmin)).
				Put("/{id}/status", h.UpdateAppointmentStatus)
			r.With(adminOnly).Delete("/{id}", h.DeleteAppointment)
		})
	})

	return r
}
