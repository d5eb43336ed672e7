package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig selects the handlers and cross-cutting middleware mounted by NewRouter.
type RouterConfig struct {
	Auth          *AuthHandler
	Schedules     *ScheduleHandler
	Participation *ParticipationHandler
	Users         *UserHandler

	// Authenticator guards every route except registration, login, health and metrics.
	Authenticator func(http.Handler) http.Handler
	// AuthLimiter throttles registration and login.
	AuthLimiter func(http.Handler) http.Handler
	Metrics     *Metrics
	Logger      *slog.Logger
	Middleware  []func(http.Handler) http.Handler
}

// NewRouter builds the API routes under /api together with /health and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	responder := newResponder(cfg.Logger)

	r.Use(middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, errMethodNotSupported)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		responder.writeSuccess(req.Context(), w, http.StatusOK, "ok", map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", cfg.Metrics.Handler())

	authenticated := passthrough
	if cfg.Authenticator != nil {
		authenticated = cfg.Authenticator
	}
	throttled := passthrough
	if cfg.AuthLimiter != nil {
		throttled = cfg.AuthLimiter
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Route("/auth", func(r chi.Router) {
				r.With(throttled).Post("/register", cfg.Auth.Register)
				r.With(throttled).Post("/login", cfg.Auth.Login)
				r.With(authenticated).Get("/me", cfg.Auth.Me)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/schedules", func(r chi.Router) {
				if cfg.Participation != nil {
					r.Get("/my-participations", cfg.Participation.Mine)
				}
				if cfg.Schedules != nil {
					r.Get("/", cfg.Schedules.List)
					r.Post("/", cfg.Schedules.Create)
				}
				r.Route("/{scheduleID}", func(r chi.Router) {
					if cfg.Schedules != nil {
						r.Get("/", cfg.Schedules.Get)
						r.Put("/", cfg.Schedules.Update)
						r.Delete("/", cfg.Schedules.Delete)
					}
					if cfg.Participation != nil {
						r.Post("/participate", cfg.Participation.Set)
						r.Delete("/participate", cfg.Participation.Remove)
						r.Post("/participate/{userID}", cfg.Participation.Set)
						r.Delete("/participate/{userID}", cfg.Participation.Remove)
					}
				})
			})

			if cfg.Users != nil {
				r.Route("/users", func(r chi.Router) {
					r.Get("/", cfg.Users.List)
					r.Get("/pending", cfg.Users.Pending)
					r.Put("/{userID}", cfg.Users.Update)
					r.Delete("/{userID}", cfg.Users.Delete)
					r.Patch("/{userID}/approve", cfg.Users.Approve)
					r.Patch("/{userID}/revoke", cfg.Users.Revoke)
				})
			}
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
